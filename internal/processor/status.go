package processor

import (
	"context"
	"encoding/json"
	"time"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"

	"go.uber.org/zap"
)

// processStatus rehydrates the order from its stored snapshots and answers
// on_status with the protocol-vocabulary state.
func (e *Engine) processStatus(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload statusPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed status payload", zap.Error(err))
		return nil
	}
	if payload.Message.OrderID == "" {
		e.logger.Warn("Status request missing order_id")
		return nil
	}

	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return err
	}

	order, err := e.orders.GetOrderByBecknID(ctx, payload.Message.OrderID, sub.TenantID)
	if err != nil {
		return err
	}
	if order == nil {
		e.logger.Warn("Order not found", zap.String("order_id", payload.Message.OrderID))
		return nil
	}

	responseOrder := rehydrateOrder(order)
	responseOrder.CreatedAt = order.CreatedAt.UTC().Format(time.RFC3339)
	responseOrder.UpdatedAt = order.UpdatedAt.UTC().Format(time.RFC3339)

	e.send(sub.TenantID, sub, bctx, "on_status", beckn.OrderMessage{Order: responseOrder})
	return nil
}

// rehydrateOrder rebuilds the wire order from the stored snapshots.
func rehydrateOrder(order *models.Order) *beckn.Order {
	wire := &beckn.Order{
		ID:    order.BecknOrderID,
		State: beckn.MapState(order.State),
	}
	if len(order.Items) > 0 {
		wire.Items = json.RawMessage(order.Items)
	}
	if len(order.Billing) > 0 {
		var billing beckn.Billing
		if json.Unmarshal(order.Billing, &billing) == nil {
			wire.Billing = &billing
		}
	}
	if len(order.Fulfillment) > 0 {
		wire.Fulfillment = json.RawMessage(order.Fulfillment)
	}
	if len(order.Payment) > 0 {
		var payment beckn.Payment
		if json.Unmarshal(order.Payment, &payment) == nil {
			wire.Payment = &payment
		}
	}
	if len(order.Quote) > 0 {
		var quote beckn.Quote
		if json.Unmarshal(order.Quote, &quote) == nil {
			wire.Quote = &quote
		}
	}
	return wire
}
