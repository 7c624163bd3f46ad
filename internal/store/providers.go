package store

import (
	"context"
	"database/sql"

	"ondc-seller/internal/models"
)

// GetActiveProviders returns all active storefronts for a tenant.
func (s *Store) GetActiveProviders(ctx context.Context, tenantID string) ([]models.Provider, error) {
	var providers []models.Provider
	err := s.db.SelectContext(ctx, &providers,
		"SELECT * FROM providers WHERE tenant_id = $1 AND is_active = TRUE ORDER BY created_at", tenantID)
	return providers, err
}

// GetProviderByNetworkID resolves an active provider by its network-visible id.
func (s *Store) GetProviderByNetworkID(ctx context.Context, tenantID, providerID string) (*models.Provider, error) {
	var provider models.Provider
	err := s.db.GetContext(ctx, &provider,
		"SELECT * FROM providers WHERE tenant_id = $1 AND provider_id = $2 AND is_active = TRUE",
		tenantID, providerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// GetPublishedConfigs returns the published product configs for a tenant,
// optionally filtered by network domain.
func (s *Store) GetPublishedConfigs(ctx context.Context, tenantID, domain string) ([]models.ProductConfig, error) {
	var configs []models.ProductConfig
	if domain != "" {
		err := s.db.SelectContext(ctx, &configs,
			"SELECT * FROM product_configs WHERE tenant_id = $1 AND published = TRUE AND domain = $2",
			tenantID, domain)
		return configs, err
	}
	err := s.db.SelectContext(ctx, &configs,
		"SELECT * FROM product_configs WHERE tenant_id = $1 AND published = TRUE", tenantID)
	return configs, err
}

// GetConfigForProduct returns the network config for one product, or nil when
// the product has never been configured for the network.
func (s *Store) GetConfigForProduct(ctx context.Context, tenantID, productID string) (*models.ProductConfig, error) {
	var config models.ProductConfig
	err := s.db.GetContext(ctx, &config,
		"SELECT * FROM product_configs WHERE tenant_id = $1 AND product_id = $2", tenantID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}
