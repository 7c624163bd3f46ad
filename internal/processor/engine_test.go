package processor

import (
	"context"
	"errors"
	"testing"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/callback"
	"ondc-seller/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeStore is an in-memory backend implementing every store interface the
// engine depends on, recording mutations for assertions.
type fakeStore struct {
	subs      []models.Subscriber
	providers []models.Provider
	configs   []models.ProductConfig
	products  map[string]*models.Product
	orders    map[string]*models.Order

	createdOrders       []*models.Order
	createdItems        []*models.OrderItem
	createdFulfillments []*models.Fulfillment
	createdPayments     []*models.Payment
	cancellations       []cancelCall
	fulfillmentUpdates  []snapshotUpdate
	itemUpdates         []snapshotUpdate
}

type cancelCall struct {
	orderID     string
	reason      string
	cancelledBy string
}

type snapshotUpdate struct {
	orderID  string
	snapshot []byte
	state    string
}

func (f *fakeStore) GetSubscriberForEnvironment(_ context.Context, environment string) (*models.Subscriber, error) {
	for i := range f.subs {
		if f.subs[i].Environment == environment {
			return &f.subs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSubscribersForEnvironment(_ context.Context, environment string) ([]models.Subscriber, error) {
	var out []models.Subscriber
	for _, s := range f.subs {
		if s.Environment == environment {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetActiveProviders(_ context.Context, tenantID string) ([]models.Provider, error) {
	var out []models.Provider
	for _, p := range f.providers {
		if p.TenantID == tenantID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProviderByNetworkID(_ context.Context, tenantID, providerID string) (*models.Provider, error) {
	for i := range f.providers {
		if f.providers[i].TenantID == tenantID && f.providers[i].ProviderID == providerID {
			return &f.providers[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetPublishedConfigs(_ context.Context, tenantID, domain string) ([]models.ProductConfig, error) {
	var out []models.ProductConfig
	for _, c := range f.configs {
		if c.TenantID == tenantID && c.Domain == domain && c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, productID, _ string) (*models.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, errors.New("product not found")
	}
	return product, nil
}

func (f *fakeStore) GetProductsByIDs(_ context.Context, _ string, ids []string) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.createdOrders = append(f.createdOrders, order)
	return nil
}

func (f *fakeStore) GetOrderByBecknID(_ context.Context, becknOrderID, _ string) (*models.Order, error) {
	return f.orders[becknOrderID], nil
}

func (f *fakeStore) UpdateOrderFulfillmentSnapshot(_ context.Context, orderID string, fulfillment []byte, state string) error {
	f.fulfillmentUpdates = append(f.fulfillmentUpdates, snapshotUpdate{orderID, fulfillment, state})
	return nil
}

func (f *fakeStore) UpdateOrderItemsSnapshot(_ context.Context, orderID string, items []byte) error {
	f.itemUpdates = append(f.itemUpdates, snapshotUpdate{orderID: orderID, snapshot: items})
	return nil
}

func (f *fakeStore) CancelOrder(_ context.Context, orderID, reason, cancelledBy string) error {
	f.cancellations = append(f.cancellations, cancelCall{orderID, reason, cancelledBy})
	return nil
}

func (f *fakeStore) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	f.createdItems = append(f.createdItems, item)
	return nil
}

func (f *fakeStore) CreateFulfillment(_ context.Context, fl *models.Fulfillment) error {
	f.createdFulfillments = append(f.createdFulfillments, fl)
	return nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) error {
	f.createdPayments = append(f.createdPayments, p)
	return nil
}

type sentCallback struct {
	tenantID string
	bapURI   string
	action   string
	cb       *beckn.Callback
}

type fakeSender struct {
	sent []sentCallback
}

var _ callback.Sender = (*fakeSender)(nil)

func (f *fakeSender) Send(tenantID string, _ *models.Subscriber, bapURI, action string, cb *beckn.Callback) {
	f.sent = append(f.sent, sentCallback{tenantID, bapURI, action, cb})
}

type reservation struct {
	productID string
	quantity  int
}

type fakeReserver struct {
	reserved []reservation
}

func (f *fakeReserver) Reserve(_ context.Context, _, productID string, quantity int) error {
	f.reserved = append(f.reserved, reservation{productID, quantity})
	return nil
}

type fakeAudit struct{}

func (fakeAudit) Incoming(context.Context, string, string, string, string, string, string, int, string) {
}

func (fakeAudit) Outgoing(context.Context, string, string, string, string, string, int, string, int64) {
}

func newTestStore() *fakeStore {
	return &fakeStore{
		subs: []models.Subscriber{{
			ID:            "sub-1",
			TenantID:      "tenant-1",
			SubscriberID:  "seller.example.com",
			SubscriberURL: "https://seller.example.com/ondc",
			Environment:   models.EnvironmentStaging,
		}},
		providers: []models.Provider{{
			ID:         "row-1",
			TenantID:   "tenant-1",
			ProviderID: "provider-1",
			Name:       "Fresh Mart",
			ShortDesc:  "Groceries",
			IsActive:   true,
		}},
		products: map[string]*models.Product{
			"prod-1": {
				ID:           "prod-1",
				TenantID:     "tenant-1",
				Name:         "Basmati Rice",
				SellingPrice: decimal.RequireFromString("100.00"),
				MRP:          decimal.RequireFromString("120.00"),
				GSTRate:      18,
				Status:       models.ProductStatusActive,
			},
			"prod-2": {
				ID:           "prod-2",
				TenantID:     "tenant-1",
				Name:         "Rock Salt",
				SellingPrice: decimal.RequireFromString("50.00"),
				GSTRate:      0,
				Status:       models.ProductStatusActive,
			},
		},
		orders: map[string]*models.Order{},
	}
}

func newTestEngine(st *fakeStore) (*Engine, *fakeSender, *fakeReserver) {
	sender := &fakeSender{}
	reserver := &fakeReserver{}
	engine := NewEngine(models.EnvironmentStaging, st, st, st, st, reserver, sender, fakeAudit{})
	return engine, sender, reserver
}

func testContext(action string) *beckn.Context {
	return &beckn.Context{
		Domain:        "nic2004:52110",
		Country:       "IND",
		City:          "std:080",
		Action:        action,
		BapID:         "buyer.example.com",
		BapURI:        "https://buyer.example.com/ondc",
		TransactionID: "txn-1",
		MessageID:     "msg-1",
	}
}

func TestSupports(t *testing.T) {
	engine, _, _ := newTestEngine(newTestStore())

	for _, action := range []string{"search", "select", "init", "confirm", "status", "update", "cancel"} {
		assert.True(t, engine.Supports(action), action)
	}
	assert.False(t, engine.Supports("on_search"))
	assert.False(t, engine.Supports("track"))
}

func TestProcessUnknownAction(t *testing.T) {
	engine, sender, _ := newTestEngine(newTestStore())

	engine.Process(context.Background(), "track", []byte(`{}`), testContext("track"))
	assert.Empty(t, sender.sent)
}
