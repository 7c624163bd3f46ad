package store

import (
	"context"
	"database/sql"
	"fmt"

	"ondc-seller/internal/models"
)

// CreateOrder persists a new network order with its protocol snapshots.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			id, tenant_id, provider_id, beckn_order_id, transaction_id,
			bap_id, bap_uri, domain, state,
			items, billing, fulfillment, payment, quote,
			billing_name, billing_phone, billing_email, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.ID, order.TenantID, order.ProviderID, order.BecknOrderID, order.TransactionID,
		order.BapID, order.BapURI, order.Domain, order.State,
		order.Items, order.Billing, order.Fulfillment, order.Payment, order.Quote,
		order.BillingName, order.BillingPhone, order.BillingEmail, order.BillingAddress)
}

// GetOrderByBecknID retrieves an order by its network order id, tenant-scoped.
// Returns nil when the order does not exist for this tenant.
func (s *Store) GetOrderByBecknID(ctx context.Context, becknOrderID, tenantID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE beckn_order_id = $1 AND tenant_id = $2", becknOrderID, tenantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder retrieves an order by its internal id, tenant-scoped. Returns nil
// when the order does not exist for this tenant.
func (s *Store) GetOrder(ctx context.Context, orderID, tenantID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 AND tenant_id = $2", orderID, tenantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves all orders for a tenant, newest first.
func (s *Store) ListOrders(ctx context.Context, tenantID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE tenant_id = $1 ORDER BY created_at DESC", tenantID)
	return orders, err
}

// UpdateOrderState transitions an order's lifecycle state.
func (s *Store) UpdateOrderState(ctx context.Context, orderID, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET state = $1, updated_at = NOW() WHERE id = $2", state, orderID)
	return err
}

// UpdateOrderFulfillmentSnapshot overwrites the stored fulfillment snapshot
// and optionally the lifecycle state in one write.
func (s *Store) UpdateOrderFulfillmentSnapshot(ctx context.Context, orderID string, fulfillment []byte, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET fulfillment = $1, state = $2, updated_at = NOW() WHERE id = $3",
		fulfillment, state, orderID)
	return err
}

// UpdateOrderItemsSnapshot overwrites the stored items snapshot.
func (s *Store) UpdateOrderItemsSnapshot(ctx context.Context, orderID string, items []byte) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET items = $1, updated_at = NOW() WHERE id = $2", items, orderID)
	return err
}

// CancelOrder marks an order cancelled with the reason and cancelling party.
func (s *Store) CancelOrder(ctx context.Context, orderID, reason, cancelledBy string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET state = $1, cancellation_reason = $2, cancelled_by = $3, updated_at = NOW()
		WHERE id = $4`,
		models.OrderStateCancelled, reason, cancelledBy, orderID)
	return err
}

// CreateOrderItem creates a normalized order line item.
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (
			id, order_id, product_id, quantity, unit_price, tax_amount, total_price, return_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return s.db.GetContext(ctx, &item.CreatedAt, query,
		item.ID, item.OrderID, item.ProductID, item.Quantity,
		item.UnitPrice, item.TaxAmount, item.TotalPrice, item.ReturnStatus)
}

// GetOrderItems retrieves all line items for an order.
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// CreateFulfillment creates the delivery record for an order.
func (s *Store) CreateFulfillment(ctx context.Context, f *models.Fulfillment) error {
	query := `
		INSERT INTO fulfillments (id, order_id, type, state, delivery_address, delivery_gps)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, f, query,
		f.ID, f.OrderID, f.Type, f.State, f.DeliveryAddress, f.DeliveryGPS)
}

// UpdateFulfillmentState transitions a fulfillment's state.
func (s *Store) UpdateFulfillmentState(ctx context.Context, fulfillmentID, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE fulfillments SET state = $1, updated_at = NOW() WHERE id = $2", state, fulfillmentID)
	return err
}

// GetFulfillmentByOrderID retrieves the fulfillment for an order.
func (s *Store) GetFulfillmentByOrderID(ctx context.Context, orderID string) (*models.Fulfillment, error) {
	var f models.Fulfillment
	err := s.db.GetContext(ctx, &f,
		"SELECT * FROM fulfillments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fulfillment not found for order: %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreatePayment creates the settlement record for an order.
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, type, collected_by, finder_fee_type, finder_fee_amount,
			settlement_basis, settlement_window, settlement_amount, settlement_status, provider_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.ID, p.OrderID, p.Type, p.CollectedBy, p.FinderFeeType, p.FinderFeeAmount,
		p.SettlementBasis, p.SettlementWindow, p.SettlementAmount, p.SettlementStatus, p.ProviderTxID)
}

// GetPaymentByOrderID retrieves the payment for an order.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for order: %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
