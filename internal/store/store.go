package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ondc-seller/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProduct retrieves a product scoped to a tenant. Cross-tenant lookups
// always miss.
func (s *Store) GetProduct(ctx context.Context, productID, tenantID string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND tenant_id = $2", productID, tenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %s", productID)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products for a tenant by id.
func (s *Store) GetProductsByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM products WHERE tenant_id = ? AND id IN (?)", tenantID, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// DecrementStock atomically decrements a product's stock, floored at zero.
// Single-statement read-modify-write so concurrent confirms for the same
// product cannot lose updates.
func (s *Store) DecrementStock(ctx context.Context, productID, tenantID string, quantity int) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	err := s.db.GetContext(ctx, &remaining, `
		UPDATE products
		SET current_stock = GREATEST(current_stock - $1, 0)
		WHERE id = $2 AND tenant_id = $3 AND track_inventory = TRUE
		RETURNING current_stock`,
		quantity, productID, tenantID)
	if err == sql.ErrNoRows {
		// untracked products keep unlimited availability
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return remaining, nil
}
