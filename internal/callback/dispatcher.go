// Package callback delivers signed on_ callbacks to buyer apps.
package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ondc-seller/internal/audit"
	"ondc-seller/internal/beckn"
	"ondc-seller/internal/crypto"
	"ondc-seller/internal/models"
	"ondc-seller/internal/util"
	"ondc-seller/internal/worker"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender queues a callback for delivery. Implemented by Dispatcher; the
// processors depend on this interface so tests can capture payloads.
type Sender interface {
	Send(tenantID string, sub *models.Subscriber, bapURI, action string, cb *beckn.Callback)
}

// Dispatcher signs and POSTs callbacks on a bounded worker pool. Delivery is
// fire-and-forget: a failed callback is logged and audited, never retried.
// The buyer app re-polls via status when it misses one.
type Dispatcher struct {
	client *resty.Client
	pool   *worker.Pool
	audit  audit.Recorder
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher delivering through the given pool.
func NewDispatcher(pool *worker.Pool, auditLog audit.Recorder, timeout time.Duration) *Dispatcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Dispatcher{
		client: client,
		pool:   pool,
		audit:  auditLog,
		logger: util.GetLogger(),
	}
}

// Send queues one callback for asynchronous delivery to the buyer app.
func (d *Dispatcher) Send(tenantID string, sub *models.Subscriber, bapURI, action string, cb *beckn.Callback) {
	d.pool.Submit(func(ctx context.Context) {
		d.deliver(ctx, tenantID, sub, bapURI, action, cb)
	})
}

func (d *Dispatcher) deliver(ctx context.Context, tenantID string, sub *models.Subscriber, bapURI, action string, cb *beckn.Callback) {
	ctx, span := util.StartSpan(ctx, "callback."+action)
	defer span.End()

	transactionID := ""
	if cb.Context != nil {
		transactionID = cb.Context.TransactionID
	}

	body, err := json.Marshal(cb)
	if err != nil {
		d.logger.Error("Failed to marshal callback",
			zap.String("action", action), zap.Error(err))
		return
	}

	authHeader, err := crypto.AuthorizationHeader(body, sub.SubscriberID, sub.UniqueKeyID, sub.SigningPrivateKey)
	if err != nil {
		d.logger.Error("Failed to sign callback",
			zap.String("action", action),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		d.audit.Outgoing(ctx, tenantID, action, transactionID, string(body), "", 0, err.Error(), 0)
		util.CallbacksFailedTotal.WithLabelValues(action).Inc()
		return
	}

	url := strings.TrimRight(bapURI, "/") + "/" + action
	start := time.Now()

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Authorization", authHeader).
		SetBody(body).
		Post(url)

	elapsed := time.Since(start)
	util.CallbackLatency.WithLabelValues(action).Observe(elapsed.Seconds())

	if err != nil {
		d.logger.Error("Callback delivery failed",
			zap.String("action", action),
			zap.String("url", url),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		d.audit.Outgoing(ctx, tenantID, action, transactionID, string(body), "", 0, err.Error(), elapsed.Milliseconds())
		util.CallbacksFailedTotal.WithLabelValues(action).Inc()
		return
	}

	status := resp.StatusCode()
	errMsg := ""
	if status >= 300 {
		errMsg = fmt.Sprintf("unexpected status %d", status)
		d.logger.Warn("Callback rejected by buyer app",
			zap.String("action", action),
			zap.String("url", url),
			zap.String("transaction_id", transactionID),
			zap.Int("status", status))
		util.CallbacksFailedTotal.WithLabelValues(action).Inc()
	} else {
		d.logger.Info("Callback delivered",
			zap.String("action", action),
			zap.String("transaction_id", transactionID),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed))
		util.CallbacksSentTotal.WithLabelValues(action).Inc()
	}

	d.audit.Outgoing(ctx, tenantID, action, transactionID, string(body), string(resp.Body()), status, errMsg, elapsed.Milliseconds())
}
