package processor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"
	"ondc-seller/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// processConfirm persists the order with its protocol snapshots, creates the
// normalized line items, fulfillment and payment records, reserves stock,
// and answers on_confirm with state Accepted.
func (e *Engine) processConfirm(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload orderPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed confirm payload", zap.Error(err))
		return nil
	}
	order := payload.Message.Order
	if order == nil {
		e.logger.Warn("Confirm request missing order")
		return nil
	}

	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return err
	}

	providerID, err := e.resolveProviderID(ctx, sub.TenantID, order)
	if err != nil {
		return err
	}
	if providerID == "" {
		e.logger.Error("No active provider found for tenant",
			zap.String("tenant_id", sub.TenantID))
		return nil
	}

	becknOrderID := order.ID
	if becknOrderID == "" {
		becknOrderID = uuid.New().String()
	}

	record := &models.Order{
		ID:            uuid.New().String(),
		TenantID:      sub.TenantID,
		ProviderID:    providerID,
		BecknOrderID:  becknOrderID,
		TransactionID: bctx.TransactionID,
		BapID:         bctx.BapID,
		BapURI:        bctx.BapURI,
		Domain:        bctx.Domain,
		State:         models.OrderStateCreated,
		Items:         order.Items,
		Fulfillment:   order.Fulfillment,
	}
	if order.Billing != nil {
		record.Billing, _ = json.Marshal(order.Billing)
		record.BillingName = order.Billing.Name
		record.BillingPhone = order.Billing.Phone
		record.BillingEmail = order.Billing.Email
		if order.Billing.Address != nil {
			record.BillingAddress, _ = json.Marshal(order.Billing.Address)
		}
	}
	if order.Payment != nil {
		record.Payment, _ = json.Marshal(order.Payment)
	}
	if order.Quote != nil {
		record.Quote, _ = json.Marshal(order.Quote)
	}

	if err := e.orders.CreateOrder(ctx, record); err != nil {
		return err
	}

	itemCount := e.createOrderItems(ctx, sub.TenantID, record.ID, order.Items)
	e.logger.Info("Created network order",
		zap.String("order_id", record.ID),
		zap.String("beckn_order_id", becknOrderID),
		zap.Int("items", itemCount))

	if err := e.createFulfillment(ctx, record.ID, order.Fulfillment); err != nil {
		e.logger.Error("Failed to create fulfillment record",
			zap.String("order_id", record.ID), zap.Error(err))
	}
	if err := e.createPayment(ctx, record.ID, order.Payment); err != nil {
		e.logger.Error("Failed to create payment record",
			zap.String("order_id", record.ID), zap.Error(err))
	}

	util.OrdersCreatedTotal.Inc()

	now := time.Now().UTC().Format(time.RFC3339)
	responseOrder := *order
	responseOrder.ID = becknOrderID
	responseOrder.State = "Accepted"
	responseOrder.CreatedAt = now
	responseOrder.UpdatedAt = now

	e.send(sub.TenantID, sub, bctx, "on_confirm", beckn.OrderMessage{Order: &responseOrder})
	return nil
}

// resolveProviderID maps the wire provider id to an active storefront,
// falling back to the tenant's first active provider.
func (e *Engine) resolveProviderID(ctx context.Context, tenantID string, order *beckn.Order) (string, error) {
	if order.Provider != nil && order.Provider.ID != "" {
		provider, err := e.providers.GetProviderByNetworkID(ctx, tenantID, order.Provider.ID)
		if err != nil {
			return "", err
		}
		if provider != nil {
			return provider.ID, nil
		}
	}
	providers, err := e.providers.GetActiveProviders(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if len(providers) == 0 {
		return "", nil
	}
	return providers[0].ID, nil
}

// createOrderItems persists one normalized row per cart line and reserves
// its stock. Unknown products are skipped; the order still goes through.
func (e *Engine) createOrderItems(ctx context.Context, tenantID, orderID string, rawItems json.RawMessage) int {
	created := 0
	for _, ref := range parseItemRefs(rawItems) {
		if ref.ID == "" {
			continue
		}
		product, err := e.products.GetProduct(ctx, ref.ID, tenantID)
		if err != nil {
			e.logger.Warn("Unknown product in confirm", zap.String("item_id", ref.ID))
			continue
		}

		qty := ref.Quantity.Count
		price := unitPrice(product)
		itemTotal := price.Mul(decimal.NewFromInt(int64(qty)))
		taxAmount := gstAmount(itemTotal, product.GSTRate)

		item := &models.OrderItem{
			ID:           uuid.New().String(),
			OrderID:      orderID,
			ProductID:    ref.ID,
			Quantity:     qty,
			UnitPrice:    price,
			TaxAmount:    taxAmount,
			TotalPrice:   itemTotal.Add(taxAmount),
			ReturnStatus: models.ReturnStatusNone,
		}
		if err := e.orders.CreateOrderItem(ctx, item); err != nil {
			e.logger.Error("Failed to create order item",
				zap.String("item_id", ref.ID), zap.Error(err))
			continue
		}
		created++

		if err := e.stock.Reserve(ctx, tenantID, ref.ID, qty); err != nil {
			e.logger.Error("Stock reservation failed",
				zap.String("product_id", ref.ID), zap.Error(err))
		}
	}
	return created
}

func (e *Engine) createFulfillment(ctx context.Context, orderID string, rawFulfillment json.RawMessage) error {
	record := &models.Fulfillment{
		ID:      uuid.New().String(),
		OrderID: orderID,
		Type:    models.FulfillmentTypeDelivery,
		State:   models.FulfillmentStatePending,
	}

	if len(rawFulfillment) > 0 {
		var f confirmFulfillment
		if err := json.Unmarshal(rawFulfillment, &f); err == nil {
			if strings.EqualFold(f.Type, "Self-Pickup") {
				record.Type = models.FulfillmentTypeSelfPickup
			}
			record.DeliveryGPS = f.End.Location.GPS
			record.DeliveryAddress = f.End.Location.Address
		}
	}

	return e.orders.CreateFulfillment(ctx, record)
}

func (e *Engine) createPayment(ctx context.Context, orderID string, payment *beckn.Payment) error {
	record := &models.Payment{
		ID:               uuid.New().String(),
		OrderID:          orderID,
		Type:             models.PaymentTypePrePaid,
		CollectedBy:      "BAP",
		SettlementStatus: models.SettlementStatusPending,
	}

	if payment != nil {
		record.Type = mapPaymentType(payment.Type)
		if payment.CollectedBy != "" {
			record.CollectedBy = payment.CollectedBy
		}
		if payment.Params != nil {
			record.ProviderTxID = payment.Params.TransactionID
		}
		record.FinderFeeType = payment.FinderFeeType
		if payment.FinderFeeAmount != "" {
			if amount, err := decimal.NewFromString(payment.FinderFeeAmount); err == nil {
				record.FinderFeeAmount = amount
			}
		}
		record.SettlementBasis = payment.SettlementBasis
		record.SettlementWindow = payment.SettlementWindow
	}

	return e.orders.CreatePayment(ctx, record)
}

// mapPaymentType translates the wire payment vocabulary to internal types.
func mapPaymentType(wireType string) string {
	switch wireType {
	case "ON-ORDER", "PRE-FULFILLMENT":
		return models.PaymentTypePrePaid
	case "ON-FULFILLMENT":
		return models.PaymentTypeOnDelivery
	case "POST-FULFILLMENT":
		return models.PaymentTypePostFulfillment
	default:
		return models.PaymentTypePrePaid
	}
}
