package processor

import (
	"context"
	"encoding/json"
	"time"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/models"
	"ondc-seller/internal/util"

	"go.uber.org/zap"
)

// processCancel cancels an order that has not shipped yet. Orders past
// ACCEPTED are left untouched; the buyer app gets no callback and must use
// the return flow instead.
func (e *Engine) processCancel(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload cancelPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed cancel payload", zap.Error(err))
		return nil
	}
	if payload.Message.OrderID == "" {
		e.logger.Warn("Cancel request missing order_id")
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
		e.logger.Warn("Order not found for cancellation",
			zap.String("order_id", payload.Message.OrderID))
		return nil
	}

	if order.State != models.OrderStateCreated && order.State != models.OrderStateAccepted {
		e.logger.Warn("Cannot cancel order in state",
			zap.String("order_id", order.BecknOrderID),
			zap.String("state", order.State))
		return nil
	}

	reason := payload.Message.CancellationReasonID
	if err := e.orders.CancelOrder(ctx, order.ID, reason, bctx.BapID); err != nil {
		return err
	}
	util.OrdersCancelledTotal.Inc()

	e.logger.Info("Cancelled network order",
		zap.String("order_id", order.BecknOrderID),
		zap.String("reason", reason))

	responseOrder := &beckn.Order{
		ID:        order.BecknOrderID,
		State:     "Cancelled",
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Cancellation: &beckn.Cancellation{
			CancelledBy: bctx.BapID,
			Reason:      &beckn.CancelReason{ID: reason},
		},
	}
	if len(order.Items) > 0 {
		responseOrder.Items = json.RawMessage(order.Items)
	}
	if len(order.Quote) > 0 {
		var quote beckn.Quote
		if json.Unmarshal(order.Quote, &quote) == nil {
			responseOrder.Quote = &quote
		}
	}

	e.send(sub.TenantID, sub, bctx, "on_cancel", beckn.OrderMessage{Order: responseOrder})
	return nil
}
