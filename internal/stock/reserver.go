// Package stock reserves inventory when orders are confirmed.
package stock

import (
	"context"

	"ondc-seller/internal/redisclient"
	"ondc-seller/internal/store"
	"ondc-seller/internal/util"

	"go.uber.org/zap"
)

// Reserver decrements inventory for a confirmed order line.
type Reserver interface {
	Reserve(ctx context.Context, tenantID, productID string, quantity int) error
}

// Reservation decrements stock in Postgres, which stays the source of truth,
// and keeps the Redis counter in step so catalog availability reads stay hot.
// Decrements floor at zero on both paths.
type Reservation struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewReservation creates a reserver. The cache may be nil when Redis is not
// configured; reservations then go straight to the database.
func NewReservation(st *store.Store, cache *redisclient.Client) *Reservation {
	return &Reservation{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Reserve decrements stock for one order line. Untracked products are a
// silent no-op in the database path.
func (r *Reservation) Reserve(ctx context.Context, tenantID, productID string, quantity int) error {
	remaining, err := r.store.DecrementStock(ctx, productID, tenantID, quantity)
	if err != nil {
		return err
	}
	util.StockDecrementsTotal.WithLabelValues("db").Inc()

	if r.cache == nil {
		return nil
	}

	if _, hit, err := r.cache.DecrementStock(ctx, tenantID, productID, quantity); err != nil {
		r.logger.Warn("Stock cache decrement failed",
			zap.String("product_id", productID), zap.Error(err))
	} else if hit {
		util.StockDecrementsTotal.WithLabelValues("cache").Inc()
	} else {
		// cache miss: seed from the authoritative count
		if err := r.cache.SetStock(ctx, tenantID, productID, remaining.IntPart()); err != nil {
			r.logger.Warn("Stock cache seed failed",
				zap.String("product_id", productID), zap.Error(err))
		}
	}

	r.logger.Info("Reserved stock",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.String("remaining", remaining.String()))
	return nil
}
