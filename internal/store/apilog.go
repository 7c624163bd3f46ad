package store

import (
	"context"

	"ondc-seller/internal/models"
)

// AppendAPILog writes one audit entry. The table is append-only; nothing in
// this service reads it back.
func (s *Store) AppendAPILog(ctx context.Context, entry *models.APILogEntry) error {
	query := `
		INSERT INTO api_log (
			id, tenant_id, direction, action, transaction_id, message_id, bap_id,
			request_body, response_body, http_status, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.Direction, entry.Action,
		entry.TransactionID, entry.MessageID, entry.BapID,
		entry.RequestBody, entry.ResponseBody, entry.HTTPStatus,
		entry.ErrorMessage, entry.DurationMs)
	return err
}
