package processor

import (
	"context"
	"encoding/json"
	"time"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"

	"go.uber.org/zap"
)

// processUpdate overwrites the targeted snapshot. A fulfillment update may
// also advance the order lifecycle when the fulfillment state implies it.
func (e *Engine) processUpdate(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload updatePayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed update payload", zap.Error(err))
		return nil
	}
	order := payload.Message.Order
	if order == nil || order.ID == "" {
		e.logger.Warn("Update request missing order id")
		return nil
	}
	target := payload.Message.UpdateTarget
	if target == "" {
		target = "fulfillment"
	}

	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return err
	}

	stored, err := e.orders.GetOrderByBecknID(ctx, order.ID, sub.TenantID)
	if err != nil {
		return err
	}
	if stored == nil {
		e.logger.Warn("Order not found for update", zap.String("order_id", order.ID))
		return nil
	}

	switch target {
	case "fulfillment":
		if len(order.Fulfillment) > 0 {
			newState := inferOrderState(order.Fulfillment, stored.State)
			if err := e.orders.UpdateOrderFulfillmentSnapshot(ctx, stored.ID, order.Fulfillment, newState); err != nil {
				return err
			}
			stored.Fulfillment = order.Fulfillment
			stored.State = newState
		}
	case "items":
		if len(order.Items) > 0 {
			if err := e.orders.UpdateOrderItemsSnapshot(ctx, stored.ID, order.Items); err != nil {
				return err
			}
			stored.Items = order.Items
		}
	default:
		e.logger.Warn("Unknown update target", zap.String("target", target))
	}

	e.logger.Info("Updated network order",
		zap.String("order_id", order.ID),
		zap.String("target", target))

	responseOrder := &beckn.Order{
		ID:        order.ID,
		State:     beckn.MapState(stored.State),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if len(stored.Items) > 0 {
		responseOrder.Items = json.RawMessage(stored.Items)
	}
	if len(stored.Fulfillment) > 0 {
		responseOrder.Fulfillment = json.RawMessage(stored.Fulfillment)
	}
	if len(stored.Quote) > 0 {
		var quote beckn.Quote
		if json.Unmarshal(stored.Quote, &quote) == nil {
			responseOrder.Quote = &quote
		}
	}

	e.send(sub.TenantID, sub, bctx, "on_update", beckn.OrderMessage{Order: responseOrder})
	return nil
}

// inferOrderState derives the order lifecycle state from the fulfillment
// state code in the update, keeping the current state when nothing implies
// a change.
func inferOrderState(rawFulfillment json.RawMessage, current string) string {
	var f struct {
		State struct {
			Descriptor struct {
				Code string `json:"code"`
			} `json:"descriptor"`
		} `json:"state"`
	}
	if err := json.Unmarshal(rawFulfillment, &f); err != nil {
		return current
	}
	switch f.State.Descriptor.Code {
	case "Order-delivered":
		return models.OrderStateCompleted
	case "Order-picked-up", "Out-for-delivery":
		return models.OrderStateInProgress
	default:
		return current
	}
}
