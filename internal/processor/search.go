package processor

import (
	"context"
	"encoding/json"
	"strings"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/catalog"
	"ondc-seller/internal/models"

	"go.uber.org/zap"
)

// processSearch fans the discovery request out across every subscriber and
// active provider: each provider with matching published products answers
// with its own on_search catalog. Providers with nothing to offer stay
// silent rather than sending empty catalogs.
func (e *Engine) processSearch(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload searchPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed search payload", zap.Error(err))
		return nil
	}
	query := payload.query()

	e.logger.Info("Processing search",
		zap.String("query", query),
		zap.String("domain", bctx.Domain),
		zap.String("transaction_id", bctx.TransactionID))

	subs, err := e.subscribers.GetSubscribersForEnvironment(ctx, e.environment)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		e.logger.Warn("No subscribers for environment",
			zap.String("environment", e.environment))
		return nil
	}

	for i := range subs {
		sub := &subs[i]
		if err := e.searchTenant(ctx, sub, bctx, query); err != nil {
			e.logger.Error("Search failed for tenant",
				zap.String("tenant_id", sub.TenantID), zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) searchTenant(ctx context.Context, sub *models.Subscriber, bctx *beckn.Context, query string) error {
	providers, err := e.providers.GetActiveProviders(ctx, sub.TenantID)
	if err != nil {
		return err
	}

	for i := range providers {
		provider := &providers[i]

		configs, err := e.providers.GetPublishedConfigs(ctx, sub.TenantID, bctx.Domain)
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			continue
		}

		ids := make([]string, 0, len(configs))
		for _, cfg := range configs {
			ids = append(ids, cfg.ProductID)
		}
		products, err := e.products.GetProductsByIDs(ctx, sub.TenantID, ids)
		if err != nil {
			return err
		}

		matched := filterProducts(products, query)
		if len(matched) == 0 {
			continue
		}

		cat := catalog.BuildCatalog(provider, matched, configs)
		e.send(sub.TenantID, sub, bctx, "on_search", beckn.CatalogMessage{Catalog: cat})
	}
	return nil
}

// filterProducts keeps active products whose name, description or brand
// contains the query, case-insensitively. An empty query matches everything.
func filterProducts(products []models.Product, query string) []models.Product {
	q := strings.ToLower(query)
	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Status != models.ProductStatusActive {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.ShortDesc), q) &&
			!strings.Contains(strings.ToLower(p.Brand), q) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}
