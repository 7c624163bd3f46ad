package processor

import (
	"context"
	"testing"

	"ondc-seller/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessUpdateFulfillmentDelivered(t *testing.T) {
	st := newTestStore()
	st.orders["order-abc"] = storedOrder(models.OrderStateInProgress)
	engine, sender, _ := newTestEngine(st)

	body := []byte(`{
		"message": {
			"update_target": "fulfillment",
			"order": {
				"id": "order-abc",
				"fulfillment": {"state": {"descriptor": {"code": "Order-delivered"}}}
			}
		}
	}`)
	require.NoError(t, engine.processUpdate(context.Background(), body, testContext("update")))

	require.Len(t, st.fulfillmentUpdates, 1)
	assert.Equal(t, "row-order-1", st.fulfillmentUpdates[0].orderID)
	assert.Equal(t, models.OrderStateCompleted, st.fulfillmentUpdates[0].state)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "on_update", sender.sent[0].action)
	order := sentOrder(t, sender.sent[0])
	assert.Equal(t, "Completed", order.State)
	assert.NotEmpty(t, order.Fulfillment)
}

func TestProcessUpdateDefaultsToFulfillmentTarget(t *testing.T) {
	st := newTestStore()
	st.orders["order-abc"] = storedOrder(models.OrderStateAccepted)
	engine, sender, _ := newTestEngine(st)

	body := []byte(`{
		"message": {
			"order": {
				"id": "order-abc",
				"fulfillment": {"state": {"descriptor": {"code": "Out-for-delivery"}}}
			}
		}
	}`)
	require.NoError(t, engine.processUpdate(context.Background(), body, testContext("update")))

	require.Len(t, st.fulfillmentUpdates, 1)
	assert.Equal(t, models.OrderStateInProgress, st.fulfillmentUpdates[0].state)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "In-progress", sentOrder(t, sender.sent[0]).State)
}

func TestProcessUpdateItemsTarget(t *testing.T) {
	st := newTestStore()
	st.orders["order-abc"] = storedOrder(models.OrderStateAccepted)
	engine, sender, _ := newTestEngine(st)

	body := []byte(`{
		"message": {
			"update_target": "items",
			"order": {
				"id": "order-abc",
				"items": [{"id": "prod-2", "quantity": {"count": 1}}]
			}
		}
	}`)
	require.NoError(t, engine.processUpdate(context.Background(), body, testContext("update")))

	require.Len(t, st.itemUpdates, 1)
	assert.Empty(t, st.fulfillmentUpdates)
	assert.JSONEq(t, `[{"id": "prod-2", "quantity": {"count": 1}}]`, string(st.itemUpdates[0].snapshot))

	require.Len(t, sender.sent, 1)
	order := sentOrder(t, sender.sent[0])
	assert.Equal(t, "Accepted", order.State)
	assert.JSONEq(t, `[{"id": "prod-2", "quantity": {"count": 1}}]`, string(order.Items))
}

func TestProcessUpdateUnknownOrder(t *testing.T) {
	engine, sender, _ := newTestEngine(newTestStore())

	body := []byte(`{"message": {"order": {"id": "order-nope", "fulfillment": {}}}}`)
	require.NoError(t, engine.processUpdate(context.Background(), body, testContext("update")))
	assert.Empty(t, sender.sent)
}

func TestInferOrderState(t *testing.T) {
	cases := []struct {
		code    string
		current string
		want    string
	}{
		{"Order-delivered", models.OrderStateInProgress, models.OrderStateCompleted},
		{"Order-picked-up", models.OrderStateAccepted, models.OrderStateInProgress},
		{"Out-for-delivery", models.OrderStateAccepted, models.OrderStateInProgress},
		{"Packed", models.OrderStateAccepted, models.OrderStateAccepted},
		{"", models.OrderStateCreated, models.OrderStateCreated},
	}
	for _, tc := range cases {
		raw := []byte(`{"state": {"descriptor": {"code": "` + tc.code + `"}}}`)
		assert.Equal(t, tc.want, inferOrderState(raw, tc.current), tc.code)
	}

	assert.Equal(t, models.OrderStateAccepted,
		inferOrderState([]byte(`{not json`), models.OrderStateAccepted))
}
