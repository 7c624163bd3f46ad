package processor

import (
	"context"
	"encoding/json"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const quoteTTL = "P1D"

// processSelect prices the buyer's cart: one breakup line per item plus one
// tax line per item, all in INR with two-decimal strings. Unknown or
// inactive products are silently left out of the quote.
func (e *Engine) processSelect(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload orderPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed select payload", zap.Error(err))
		return nil
	}
	order := payload.Message.Order
	if order == nil || order.Provider == nil || order.Provider.ID == "" || len(order.Items) == 0 {
		e.logger.Warn("Select request missing provider or items")
		return nil
	}

	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return err
	}

	provider, err := e.providers.GetProviderByNetworkID(ctx, sub.TenantID, order.Provider.ID)
	if err != nil {
		return err
	}
	if provider == nil {
		e.logger.Warn("Provider not found", zap.String("provider_id", order.Provider.ID))
		return nil
	}

	var breakup []beckn.BreakupItem
	total := decimal.Zero

	for _, ref := range parseItemRefs(order.Items) {
		if ref.ID == "" {
			continue
		}
		product, err := e.products.GetProduct(ctx, ref.ID, sub.TenantID)
		if err != nil || product.Status != models.ProductStatusActive {
			e.logger.Warn("Product not found or inactive", zap.String("item_id", ref.ID))
			continue
		}

		qty := ref.Quantity.Count
		itemTotal := unitPrice(product).Mul(decimal.NewFromInt(int64(qty)))
		taxAmount := gstAmount(itemTotal, product.GSTRate)

		breakup = append(breakup,
			beckn.BreakupItem{
				ItemID:    ref.ID,
				TitleType: "item",
				Title:     product.Name,
				Price:     quotePrice(itemTotal),
				Item:      &beckn.Quantity{Count: qty},
			},
			beckn.BreakupItem{
				ItemID:    ref.ID,
				TitleType: "tax",
				Title:     "Tax",
				Price:     quotePrice(taxAmount),
			})

		total = total.Add(itemTotal).Add(taxAmount)
	}

	responseOrder := &beckn.Order{
		Provider: &beckn.Provider{
			ID: provider.ProviderID,
			Descriptor: &beckn.Descriptor{
				Name:      provider.Name,
				ShortDesc: provider.ShortDesc,
			},
		},
		Items: order.Items,
		Quote: &beckn.Quote{
			Price:   quotePrice(total),
			Breakup: breakup,
			TTL:     quoteTTL,
		},
	}

	e.send(sub.TenantID, sub, bctx, "on_select", beckn.OrderMessage{Order: responseOrder})
	return nil
}

// unitPrice prefers the selling price and falls back to MRP.
func unitPrice(product *models.Product) decimal.Decimal {
	if product.SellingPrice.IsPositive() {
		return product.SellingPrice
	}
	return product.MRP
}

// gstAmount computes the tax on a line total, rounded half-up to paise.
func gstAmount(lineTotal decimal.Decimal, gstRate int) decimal.Decimal {
	if gstRate <= 0 {
		return decimal.Zero.Round(2)
	}
	return lineTotal.
		Mul(decimal.NewFromInt(int64(gstRate))).
		Div(decimal.NewFromInt(100)).
		Round(2)
}

func quotePrice(amount decimal.Decimal) *beckn.Price {
	return &beckn.Price{Currency: "INR", Value: amount.StringFixed(2)}
}
