package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func sampleOrder() OrderRequest {
	return OrderRequest{
		Items: []OrderLine{{
			ProductID: "p1",
			Size:      "M",
			Quantity:  2,
			Price:     decimal.NewFromInt(10),
			Total:     decimal.NewFromInt(20),
		}},
		TotalAmount:    decimal.NewFromInt(20),
		Shipping:       domain.ShippingDetails{Name: "Jane", Address: "1 Main St"},
		IdempotencyKey: "key-1",
	}
}

func TestCreateOrder(t *testing.T) {
	c, srv := setupClient(t)
	uid := srv.AddUser("jane@example.com", "jane", "pw", false)

	ref, err := c.CreateOrder(context.Background(), srv.Token(uid), sampleOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, domain.OrderStatusPending, ref.Status)

	req := srv.LastRequest()
	assert.Equal(t, "key-1", req.Header.Get("Idempotency-Key"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.EqualValues(t, 20, body["totalAmount"])
	assert.Equal(t, map[string]any{"name": "Jane", "address": "1 Main St"}, body["shippingDetails"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].(map[string]any)["productId"])
}

func TestCreateOrder_SameKeyDoesNotDuplicate(t *testing.T) {
	c, srv := setupClient(t)
	uid := srv.AddUser("jane@example.com", "jane", "pw", false)
	token := srv.Token(uid)

	first, err := c.CreateOrder(context.Background(), token, sampleOrder())
	require.NoError(t, err)
	second, err := c.CreateOrder(context.Background(), token, sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, srv.OrderCount())
}

func TestCreateOrder_RequiresCreated(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"_id":"o1","status":"pending"}`))
	})

	_, err := c.CreateOrder(context.Background(), "t", sampleOrder())
	var apiErr *apperr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
}

func TestCreateOrder_AcceptsOrderIDField(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"orderId":"o9","status":"processing"}`))
	})

	ref, err := c.CreateOrder(context.Background(), "t", sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRef{ID: "o9", Status: domain.OrderStatusProcessing}, *ref)
}

func TestCreateOrder_MissingID(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})

	_, err := c.CreateOrder(context.Background(), "t", sampleOrder())
	assert.ErrorIs(t, err, apperr.ErrInvalidResponse)
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	c, srv := setupClient(t)
	uid := srv.AddUser("jane@example.com", "jane", "pw", false)

	_, err := c.CreateOrder(context.Background(), srv.ExpiredToken(uid), sampleOrder())
	assert.True(t, apperr.IsUnauthorized(err))
	assert.Equal(t, 0, srv.OrderCount())
}

func TestUserOrdersAndOrders(t *testing.T) {
	c, srv := setupClient(t)
	jane := srv.AddUser("jane@example.com", "jane", "pw", false)
	bob := srv.AddUser("bob@example.com", "bob", "pw", false)
	admin := srv.AddUser("root@example.com", "root", "pw", true)
	srv.AddOrder(jane, 20, "pending")
	srv.AddOrder(bob, 35.5, "shipped")

	mine, err := c.UserOrders(context.Background(), srv.Token(jane))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, jane, mine[0].UserID)

	_, err = c.Orders(context.Background(), srv.Token(jane))
	var apiErr *apperr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	all, err := c.Orders(context.Background(), srv.Token(admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, domain.OrderStatusShipped, all[1].Status)
	assert.True(t, all[1].TotalAmount.Equal(decimal.RequireFromString("35.5")))
}

func TestOrder_AndUpdateStatus(t *testing.T) {
	c, srv := setupClient(t)
	jane := srv.AddUser("jane@example.com", "jane", "pw", false)
	admin := srv.AddUser("root@example.com", "root", "pw", true)
	id := srv.AddOrder(jane, 20, "pending")

	o, err := c.Order(context.Background(), srv.Token(jane), id)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)

	updated, err := c.UpdateOrderStatus(context.Background(), srv.Token(admin), id, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	_, err = c.Order(context.Background(), srv.Token(jane), "missing")
	var apiErr *apperr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestOrders_UnknownStatusShownAsPending(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"o1","status":"teleported","items":[]},{"_id":"o2","status":"shipped","items":[]}]`))
	})

	orders, err := c.UserOrders(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
	assert.Equal(t, domain.OrderStatusShipped, orders[1].Status)
}

func TestCreateOrder_UnknownStatusStillSucceeds(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"o1","status":"Order Placed"}`))
	})

	ref, err := c.CreateOrder(context.Background(), "t", sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRef{ID: "o1", Status: domain.OrderStatusPending}, *ref)
}

func TestOrders_ItemTotalDerivedWhenMissing(t *testing.T) {
	c := rawServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"o1","status":"pending","items":[{"productId":{"_id":"p1","name":"Shirt"},"quantity":3,"price":2.5}]}]`))
	})

	orders, err := c.UserOrders(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "p1", orders[0].Items[0].ProductID)
	assert.True(t, orders[0].Items[0].Total.Equal(decimal.RequireFromString("7.5")))
}
