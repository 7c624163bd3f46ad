package processor

import (
	"context"
	"encoding/json"

	"ondc-seller/internal/beckn"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// processInit validates the order draft and returns it with a synthesized
// order id and a default payment block. Nothing is persisted yet; the order
// only materializes on confirm.
func (e *Engine) processInit(ctx context.Context, rawBody []byte, bctx *beckn.Context) error {
	var payload orderPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		e.logger.Warn("Malformed init payload", zap.Error(err))
		return nil
	}
	order := payload.Message.Order
	if order == nil || order.Provider == nil || order.Provider.ID == "" {
		e.logger.Warn("Init request missing provider")
		return nil
	}
	if order.Billing == nil || order.Billing.Name == "" {
		e.logger.Warn("Init request missing billing details")
		return nil
	}

	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return err
	}

	responseOrder := *order
	responseOrder.ID = uuid.New().String()
	responseOrder.State = "Created"
	if responseOrder.Payment == nil {
		responseOrder.Payment = &beckn.Payment{
			Type:        "ON-ORDER",
			CollectedBy: "BAP",
			Status:      "NOT-PAID",
		}
	}

	e.send(sub.TenantID, sub, bctx, "on_init", beckn.OrderMessage{Order: &responseOrder})
	return nil
}
