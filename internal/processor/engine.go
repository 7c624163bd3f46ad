// Package processor implements the asynchronous half of the two-phase Beckn
// contract: every action that was ACKed synchronously is processed here and
// answered with an on_<action> callback.
package processor

import (
	"context"

	"ondc-seller/internal/audit"
	"ondc-seller/internal/beckn"
	"ondc-seller/internal/callback"
	"ondc-seller/internal/models"
	"ondc-seller/internal/stock"
	"ondc-seller/internal/util"

	"go.uber.org/zap"
)

// SubscriberStore resolves this participant's network identities.
type SubscriberStore interface {
	GetSubscriberForEnvironment(ctx context.Context, environment string) (*models.Subscriber, error)
	GetSubscribersForEnvironment(ctx context.Context, environment string) ([]models.Subscriber, error)
}

// ProviderStore resolves storefronts and their published catalog configs.
type ProviderStore interface {
	GetActiveProviders(ctx context.Context, tenantID string) ([]models.Provider, error)
	GetProviderByNetworkID(ctx context.Context, tenantID, providerID string) (*models.Provider, error)
	GetPublishedConfigs(ctx context.Context, tenantID, domain string) ([]models.ProductConfig, error)
}

// ProductStore resolves catalog products.
type ProductStore interface {
	GetProduct(ctx context.Context, productID, tenantID string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Product, error)
}

// OrderStore persists orders and their satellite records.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByBecknID(ctx context.Context, becknOrderID, tenantID string) (*models.Order, error)
	UpdateOrderFulfillmentSnapshot(ctx context.Context, orderID string, fulfillment []byte, state string) error
	UpdateOrderItemsSnapshot(ctx context.Context, orderID string, items []byte) error
	CancelOrder(ctx context.Context, orderID, reason, cancelledBy string) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	CreateFulfillment(ctx context.Context, f *models.Fulfillment) error
	CreatePayment(ctx context.Context, p *models.Payment) error
}

type processFunc func(ctx context.Context, rawBody []byte, bctx *beckn.Context) error

// Engine dispatches inbound actions to their processors. Processing is
// best-effort: a request that cannot be served is logged and dropped, the
// buyer app learns nothing beyond the absent callback.
type Engine struct {
	environment string
	subscribers SubscriberStore
	providers   ProviderStore
	products    ProductStore
	orders      OrderStore
	stock       stock.Reserver
	callbacks   callback.Sender
	audit       audit.Recorder
	logger      *zap.Logger

	dispatch map[string]processFunc
}

// NewEngine wires the action dispatch table.
func NewEngine(
	environment string,
	subscribers SubscriberStore,
	providers ProviderStore,
	products ProductStore,
	orders OrderStore,
	reserver stock.Reserver,
	callbacks callback.Sender,
	auditLog audit.Recorder,
) *Engine {
	e := &Engine{
		environment: environment,
		subscribers: subscribers,
		providers:   providers,
		products:    products,
		orders:      orders,
		stock:       reserver,
		callbacks:   callbacks,
		audit:       auditLog,
		logger:      util.GetLogger(),
	}
	e.dispatch = map[string]processFunc{
		"search":  e.processSearch,
		"select":  e.processSelect,
		"init":    e.processInit,
		"confirm": e.processConfirm,
		"status":  e.processStatus,
		"update":  e.processUpdate,
		"cancel":  e.processCancel,
	}
	return e
}

// Supports reports whether the action has a processor.
func (e *Engine) Supports(action string) bool {
	_, ok := e.dispatch[action]
	return ok
}

// Process runs one ACKed action to completion. Errors are terminal for the
// request; there is no retry on this path.
func (e *Engine) Process(ctx context.Context, action string, rawBody []byte, bctx *beckn.Context) {
	fn, ok := e.dispatch[action]
	if !ok {
		e.logger.Warn("No processor for action", zap.String("action", action))
		return
	}

	ctx, span := util.StartSpan(ctx, "processor."+action)
	defer span.End()

	e.logIncoming(ctx, action, rawBody, bctx)

	if err := fn(ctx, rawBody, bctx); err != nil {
		e.logger.Error("Action processing failed",
			zap.String("action", action),
			zap.String("transaction_id", bctx.TransactionID),
			zap.Error(err))
		util.ActionsProcessedTotal.WithLabelValues(action, "error").Inc()
		return
	}
	util.ActionsProcessedTotal.WithLabelValues(action, "ok").Inc()
}

// subscriber resolves the identity answering for this environment. Returns
// nil without error when the participant has not been provisioned yet.
func (e *Engine) subscriber(ctx context.Context) (*models.Subscriber, error) {
	sub, err := e.subscribers.GetSubscriberForEnvironment(ctx, e.environment)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		e.logger.Warn("No subscriber configured for environment",
			zap.String("environment", e.environment))
	}
	return sub, nil
}

func (e *Engine) logIncoming(ctx context.Context, action string, rawBody []byte, bctx *beckn.Context) {
	sub, err := e.subscriber(ctx)
	if err != nil || sub == nil {
		return
	}
	e.audit.Incoming(ctx, sub.TenantID, action, bctx.TransactionID, bctx.MessageID, bctx.BapID, string(rawBody), 200, "")
}

func (e *Engine) send(tenantID string, sub *models.Subscriber, bctx *beckn.Context, action string, message interface{}) {
	e.callbacks.Send(tenantID, sub, bctx.BapURI, action, &beckn.Callback{
		Context: beckn.ResponseContext(bctx, sub, action),
		Message: message,
	})
}
