package api

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ondc-seller/internal/beckn"
	"ondc-seller/internal/crypto"
	"ondc-seller/internal/models"
	"ondc-seller/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type processedCall struct {
	action string
	bctx   *beckn.Context
}

type fakeProcessor struct {
	processed chan processedCall
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{processed: make(chan processedCall, 8)}
}

func (f *fakeProcessor) Supports(action string) bool {
	return action != "unsupported"
}

func (f *fakeProcessor) Process(_ context.Context, action string, _ []byte, bctx *beckn.Context) {
	f.processed <- processedCall{action, bctx}
}

type fakeSubscriberStore struct {
	sub         *models.Subscriber
	updatedKeys *models.Subscriber
	statuses    []string
}

func (f *fakeSubscriberStore) GetSubscriberByID(_ context.Context, subscriberID string) (*models.Subscriber, error) {
	if f.sub == nil || f.sub.SubscriberID != subscriberID {
		return nil, errors.New("subscriber not found")
	}
	return f.sub, nil
}

func (f *fakeSubscriberStore) UpdateSubscriberKeys(_ context.Context, sub *models.Subscriber) error {
	f.updatedKeys = sub
	return nil
}

func (f *fakeSubscriberStore) UpdateRegistrationStatus(_ context.Context, _, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeOrderStore struct {
	orders       map[string]*models.Order
	items        []models.OrderItem
	fulfillment  *models.Fulfillment
	payment      *models.Payment
	stateUpdates map[string]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:       map[string]*models.Order{},
		stateUpdates: map[string]string{},
	}
}

func (f *fakeOrderStore) GetOrder(_ context.Context, orderID, tenantID string) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.TenantID != tenantID {
		return nil, nil
	}
	return order, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context, tenantID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.TenantID == tenantID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateOrderState(_ context.Context, orderID, state string) error {
	f.stateUpdates[orderID] = state
	if order, ok := f.orders[orderID]; ok {
		order.State = state
	}
	return nil
}

func (f *fakeOrderStore) GetOrderItems(_ context.Context, _ string) ([]models.OrderItem, error) {
	return f.items, nil
}

func (f *fakeOrderStore) GetFulfillmentByOrderID(_ context.Context, orderID string) (*models.Fulfillment, error) {
	if f.fulfillment == nil {
		return nil, errors.New("fulfillment not found for order: " + orderID)
	}
	return f.fulfillment, nil
}

func (f *fakeOrderStore) GetPaymentByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	if f.payment == nil {
		return nil, errors.New("payment not found for order: " + orderID)
	}
	return f.payment, nil
}

type fakeRegistry struct {
	subscribeStatus string
	subscribeErr    error
	publicKey       string
}

func (f *fakeRegistry) Subscribe(context.Context, *models.Subscriber) (string, error) {
	return f.subscribeStatus, f.subscribeErr
}

func (f *fakeRegistry) LookupPublicKey(context.Context, string, string, string) (string, error) {
	return f.publicKey, nil
}

type fakeAudit struct{}

func (fakeAudit) Incoming(context.Context, string, string, string, string, string, string, int, string) {
}

func (fakeAudit) Outgoing(context.Context, string, string, string, string, string, int, string, int64) {
}

type testFixture struct {
	router      *gin.Engine
	processor   *fakeProcessor
	subscribers *fakeSubscriberStore
	orders      *fakeOrderStore
	registry    *fakeRegistry
	pool        *worker.Pool
}

func newTestFixture(t *testing.T, opts Options) *testFixture {
	t.Helper()

	f := &testFixture{
		processor:   newFakeProcessor(),
		subscribers: &fakeSubscriberStore{},
		orders:      newFakeOrderStore(),
		registry:    &fakeRegistry{subscribeStatus: models.RegistrationStatusInitiated},
		pool:        worker.NewPool("test", 2, 8),
	}
	t.Cleanup(f.pool.Shutdown)

	f.router = gin.New()
	handler := NewHandler(f.processor, f.pool, f.subscribers, f.orders, f.registry, fakeAudit{}, opts)
	handler.SetupRoutes(f.router)
	return f
}

func (f *testFixture) post(path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func envelope(action string) []byte {
	return []byte(`{
		"context": {
			"domain": "nic2004:52110",
			"country": "IND",
			"city": "std:080",
			"action": "` + action + `",
			"bap_id": "buyer.example.com",
			"bap_uri": "https://buyer.example.com/ondc",
			"transaction_id": "txn-1",
			"message_id": "msg-1"
		},
		"message": {}
	}`)
}

func TestHandleActionAcksAndProcessesAsync(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	w := f.post("/ondc/search", envelope("search"))
	assert.Equal(t, http.StatusOK, w.Code)

	var ack beckn.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, "ACK", ack.Message.Ack.Status)

	select {
	case call := <-f.processor.processed:
		assert.Equal(t, "search", call.action)
		assert.Equal(t, "txn-1", call.bctx.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("processor never received the ACKed request")
	}
}

func TestHandleActionNacksMalformedEnvelope(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	w := f.post("/ondc/select", []byte(`{"context": `))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var nack beckn.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nack))
	assert.Equal(t, "NACK", nack.Message.Ack.Status)
	require.NotNil(t, nack.Error)
	assert.Equal(t, "JSON-PARSING-ERROR", nack.Error.Type)
	assert.Equal(t, "400", nack.Error.Code)

	select {
	case <-f.processor.processed:
		t.Fatal("NACKed request must not reach the processor")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleActionRejectsUnsignedWhenVerifying(t *testing.T) {
	f := newTestFixture(t, Options{
		Environment:      models.EnvironmentStaging,
		VerifySignatures: true,
	})

	w := f.post("/ondc/confirm", envelope("confirm"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH-ERROR")
}

func TestHandleActionAcceptsSignedWhenVerifying(t *testing.T) {
	keys, err := crypto.GenerateSigningKeyPair()
	require.NoError(t, err)

	f := newTestFixture(t, Options{
		Environment:      models.EnvironmentStaging,
		VerifySignatures: true,
	})
	f.registry.publicKey = keys.PublicKey

	body := envelope("confirm")
	header, err := crypto.AuthorizationHeader(body, "buyer.example.com", "key-1", keys.PrivateKey)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/ondc/confirm", bytes.NewReader(body))
	req.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOnSubscribeSolvesChallenge(t *testing.T) {
	subscriberKeys, err := crypto.GenerateEncryptionKeyPair()
	require.NoError(t, err)
	registryKeys, err := crypto.GenerateEncryptionKeyPair()
	require.NoError(t, err)

	f := newTestFixture(t, Options{
		Environment:                 models.EnvironmentStaging,
		RegistryEncryptionPublicKey: registryKeys.PublicKey,
	})
	f.subscribers.sub = &models.Subscriber{
		SubscriberID:         "seller.example.com",
		EncryptionPrivateKey: subscriberKeys.PrivateKey,
	}

	challenge := encryptChallenge(t, "challenge-token-42", registryKeys.PrivateKey, subscriberKeys.PublicKey)
	body, _ := json.Marshal(map[string]string{
		"subscriber_id": "seller.example.com",
		"challenge":     challenge,
	})

	w := f.post("/ondc/on_subscribe", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "challenge-token-42", resp["answer"])
	assert.Contains(t, f.subscribers.statuses, models.RegistrationStatusSubscribed)
}

func TestOnSubscribeMissingFields(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	w := f.post("/ondc/on_subscribe", []byte(`{"subscriber_id": "seller.example.com"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"answer":""`)
}

func TestOnSubscribeUnknownSubscriber(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	body := []byte(`{"subscriber_id": "nobody.example.com", "challenge": "Zm9v"}`)
	w := f.post("/ondc/on_subscribe", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRotateKeys(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.subscribers.sub = &models.Subscriber{
		SubscriberID: "seller.example.com",
		UniqueKeyID:  "old-key-id",
	}

	w := f.post("/admin/subscribers/seller.example.com/keys", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["signing_public_key"])
	assert.NotEmpty(t, resp["encryption_public_key"])
	assert.NotEqual(t, "old-key-id", resp["unique_key_id"])

	require.NotNil(t, f.subscribers.updatedKeys)
	assert.NotEmpty(t, f.subscribers.updatedKeys.SigningPrivateKey)
}

func TestSubscribeRecordsStatus(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.subscribers.sub = &models.Subscriber{SubscriberID: "seller.example.com"}

	w := f.post("/admin/subscribers/seller.example.com/subscribe", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.RegistrationStatusInitiated)
	assert.Equal(t, []string{models.RegistrationStatusInitiated}, f.subscribers.statuses)
}

func TestSubscribeRegistryFailure(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.subscribers.sub = &models.Subscriber{SubscriberID: "seller.example.com"}
	f.registry.subscribeStatus = models.RegistrationStatusFailed
	f.registry.subscribeErr = errors.New("registry unreachable")

	w := f.post("/admin/subscribers/seller.example.com/subscribe", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, []string{models.RegistrationStatusFailed}, f.subscribers.statuses)
}

func (f *testFixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func createdOrder() *models.Order {
	return &models.Order{
		ID:           "row-order-1",
		TenantID:     "tenant-1",
		BecknOrderID: "order-abc",
		State:        models.OrderStateCreated,
	}
}

func TestAcceptOrder(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.orders.orders["row-order-1"] = createdOrder()

	w := f.post("/admin/orders/row-order-1/accept?tenant_id=tenant-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.OrderStateAccepted)
	assert.Equal(t, models.OrderStateAccepted, f.orders.stateUpdates["row-order-1"])
}

func TestAcceptOrderRejectsNonCreatedStates(t *testing.T) {
	for _, state := range []string{
		models.OrderStateAccepted,
		models.OrderStateInProgress,
		models.OrderStateCompleted,
		models.OrderStateCancelled,
	} {
		f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
		order := createdOrder()
		order.State = state
		f.orders.orders["row-order-1"] = order

		w := f.post("/admin/orders/row-order-1/accept?tenant_id=tenant-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code, state)
		assert.Empty(t, f.orders.stateUpdates, state)
	}
}

func TestAcceptOrderUnknownOrder(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	w := f.post("/admin/orders/row-order-nope/accept?tenant_id=tenant-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAcceptOrderWrongTenant(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.orders.orders["row-order-1"] = createdOrder()

	w := f.post("/admin/orders/row-order-1/accept?tenant_id=tenant-other", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, f.orders.stateUpdates)
}

func TestAcceptOrderRequiresTenant(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	w := f.post("/admin/orders/row-order-1/accept", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderDetail(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.orders.orders["row-order-1"] = createdOrder()
	f.orders.items = []models.OrderItem{{ID: "item-1", OrderID: "row-order-1", ProductID: "prod-1", Quantity: 2}}
	f.orders.payment = &models.Payment{ID: "pay-1", OrderID: "row-order-1", Type: models.PaymentTypePrePaid}

	w := f.get("/admin/orders/row-order-1?tenant_id=tenant-1")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Order   *models.Order      `json:"order"`
		Items   []models.OrderItem `json:"items"`
		Payment *models.Payment    `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-abc", resp.Order.BecknOrderID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "prod-1", resp.Items[0].ProductID)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, models.PaymentTypePrePaid, resp.Payment.Type)
}

func TestListOrders(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})
	f.orders.orders["row-order-1"] = createdOrder()

	w := f.get("/admin/orders?tenant_id=tenant-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order-abc")

	w = f.get("/admin/orders")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := newTestFixture(t, Options{Environment: models.EnvironmentStaging})

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

// encryptChallenge plays the registry side of the on_subscribe handshake:
// AES-ECB over the X25519 shared secret with PKCS#5 padding.
func encryptChallenge(t *testing.T, challenge, registryPrivateKey, subscriberPublicKey string) string {
	t.Helper()

	secret, err := crypto.SharedSecret(registryPrivateKey, subscriberPublicKey)
	require.NoError(t, err)

	block, err := aes.NewCipher(secret)
	require.NoError(t, err)

	pad := block.BlockSize() - len(challenge)%block.BlockSize()
	plaintext := []byte(challenge)
	for i := 0; i < pad; i++ {
		plaintext = append(plaintext, byte(pad))
	}

	ciphertext := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += block.BlockSize() {
		block.Encrypt(ciphertext[i:], plaintext[i:])
	}
	return base64.StdEncoding.EncodeToString(ciphertext)
}
