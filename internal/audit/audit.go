package audit

import (
	"context"

	"ondc-seller/internal/broker"
	"ondc-seller/internal/models"
	"ondc-seller/internal/store"
	"ondc-seller/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder is the append-only audit sink consumed by the protocol core.
type Recorder interface {
	Incoming(ctx context.Context, tenantID, action, transactionID, messageID, bapID, requestBody string, httpStatus int, errMsg string)
	Outgoing(ctx context.Context, tenantID, action, transactionID, requestBody, responseBody string, httpStatus int, errMsg string, durationMs int64)
}

// Log writes every protocol call to the api_log table and mirrors it onto a
// Kafka topic for external reporting. Both writes are best-effort; an audit
// failure never fails the call being audited.
type Log struct {
	store    *store.Store
	producer *broker.Producer
	logger   *zap.Logger
}

// NewLog creates the audit log. The producer may be nil when the event
// stream is disabled.
func NewLog(st *store.Store, producer *broker.Producer) *Log {
	return &Log{
		store:    st,
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// Incoming records one inbound protocol call.
func (l *Log) Incoming(ctx context.Context, tenantID, action, transactionID, messageID, bapID, requestBody string, httpStatus int, errMsg string) {
	l.append(ctx, &models.APILogEntry{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Direction:     models.DirectionIncoming,
		Action:        action,
		TransactionID: transactionID,
		MessageID:     messageID,
		BapID:         bapID,
		RequestBody:   requestBody,
		HTTPStatus:    httpStatus,
		ErrorMessage:  errMsg,
	})
}

// Outgoing records one outbound callback delivery attempt.
func (l *Log) Outgoing(ctx context.Context, tenantID, action, transactionID, requestBody, responseBody string, httpStatus int, errMsg string, durationMs int64) {
	l.append(ctx, &models.APILogEntry{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Direction:     models.DirectionOutgoing,
		Action:        action,
		TransactionID: transactionID,
		RequestBody:   requestBody,
		ResponseBody:  responseBody,
		HTTPStatus:    httpStatus,
		ErrorMessage:  errMsg,
		DurationMs:    durationMs,
	})
}

func (l *Log) append(ctx context.Context, entry *models.APILogEntry) {
	if err := l.store.AppendAPILog(ctx, entry); err != nil {
		l.logger.Error("Failed to write api log entry",
			zap.String("action", entry.Action),
			zap.String("transaction_id", entry.TransactionID),
			zap.Error(err))
	}

	if l.producer == nil {
		return
	}
	if err := l.producer.Publish(ctx, entry.TransactionID, entry); err != nil {
		l.logger.Warn("Failed to publish api log event",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
