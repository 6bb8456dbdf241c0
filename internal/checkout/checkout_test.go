package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type mockOrders struct {
	mu       sync.RWMutex
	ref      *domain.OrderRef
	err      error
	requests []api.OrderRequest
	tokens   []string
}

func (m *mockOrders) CreateOrder(_ context.Context, token string, req api.OrderRequest) (*domain.OrderRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.tokens = append(m.tokens, token)
	return m.ref, m.err
}

func (m *mockOrders) calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

type mockSession struct {
	token string
}

func (m *mockSession) IsAuthenticated() bool { return m.token != "" }

func (m *mockSession) Authorize(ctx context.Context, fn func(context.Context, string) error) error {
	if m.token == "" {
		return apperr.NewPrecondition("authentication required")
	}
	return fn(ctx, m.token)
}

var (
	shirt = domain.Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(10), Sizes: []string{"M"}}
	hat   = domain.Product{ID: "p2", Name: "Hat", Price: decimal.RequireFromString("4.50")}
	ship  = domain.ShippingDetails{Name: "Jane", Address: "1 Main St"}
)

func setup(t *testing.T, sess *mockSession, orders *mockOrders, policy cart.FeePolicy) (*Service, *cart.Ledger, *cart.Repository) {
	t.Helper()
	ledger := cart.NewLedger()
	repo := cart.NewRepository(store.NewMemoryStore(), nil)
	return NewService(orders, sess, ledger, repo, policy, nil), ledger, repo
}

func TestSubmit_Success(t *testing.T) {
	orders := &mockOrders{ref: &domain.OrderRef{ID: "o1", Status: domain.OrderStatusPending}}
	svc, ledger, repo := setup(t, &mockSession{token: "tok"}, orders, cart.FeePolicy{Fee: decimal.NewFromInt(5)})
	ledger.Add(shirt, "M")
	ledger.Add(shirt, "M")
	ledger.Add(hat, "")
	require.NoError(t, repo.Save(context.Background(), ledger))

	ref, err := svc.Submit(context.Background(), ship)
	require.NoError(t, err)
	assert.Equal(t, "o1", ref.ID)
	assert.True(t, ledger.IsEmpty())

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty())

	require.Len(t, orders.requests, 1)
	req := orders.requests[0]
	assert.Equal(t, "tok", orders.tokens[0])
	assert.True(t, req.TotalAmount.Equal(decimal.RequireFromString("29.50")), req.TotalAmount.String())
	assert.Equal(t, ship, req.Shipping)
	assert.NotEmpty(t, req.IdempotencyKey)
	require.Len(t, req.Items, 2)
	line := req.Items[0]
	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, "M", line.Size)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, line.Total.Equal(decimal.NewFromInt(20)))
}

func TestSubmit_Preconditions(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		orders := &mockOrders{}
		svc, ledger, _ := setup(t, &mockSession{}, orders, cart.FeePolicy{})
		ledger.Add(shirt, "M")

		_, err := svc.Submit(context.Background(), ship)

		var pErr *apperr.PreconditionError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "authentication required", pErr.Condition)
		assert.Equal(t, 1, ledger.Len())
		assert.Equal(t, 0, orders.calls())
	})

	t.Run("anonymous with empty cart reports auth first", func(t *testing.T) {
		svc, _, _ := setup(t, &mockSession{}, &mockOrders{}, cart.FeePolicy{})

		_, err := svc.Submit(context.Background(), ship)
		assert.EqualError(t, err, "authentication required")
	})

	t.Run("empty cart", func(t *testing.T) {
		orders := &mockOrders{}
		svc, _, _ := setup(t, &mockSession{token: "tok"}, orders, cart.FeePolicy{})

		_, err := svc.Submit(context.Background(), ship)

		var pErr *apperr.PreconditionError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, ConditionCartEmpty, pErr.Condition)
		assert.Equal(t, 0, orders.calls())
	})

	t.Run("missing shipping details", func(t *testing.T) {
		orders := &mockOrders{}
		svc, ledger, _ := setup(t, &mockSession{token: "tok"}, orders, cart.FeePolicy{})
		ledger.Add(shirt, "M")

		_, err := svc.Submit(context.Background(), domain.ShippingDetails{Name: "Jane"})

		var vErr *apperr.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []string{"address"}, vErr.Fields)
		assert.Equal(t, 0, orders.calls())
	})
}

func TestSubmit_FailureLeavesCartUntouched(t *testing.T) {
	failures := map[string]error{
		"server error": &apperr.APIError{Status: 500, Message: "Server error"},
		"unauthorized": &apperr.APIError{Status: 401, Message: "Not authorized"},
		"network":      &apperr.NetworkError{Op: "POST /orders", Err: errors.New("connection reset")},
	}
	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			svc, ledger, repo := setup(t, &mockSession{token: "tok"}, &mockOrders{err: failure}, cart.FeePolicy{})
			ledger.Add(shirt, "M")
			ledger.Add(hat, "")
			require.NoError(t, repo.Save(context.Background(), ledger))
			before, err := json.Marshal(ledger.Snapshot())
			require.NoError(t, err)

			_, err = svc.Submit(context.Background(), ship)
			require.ErrorIs(t, err, failure)

			after, err := json.Marshal(ledger.Snapshot())
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))

			persisted, err := repo.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, persisted.Len())
		})
	}
}

type failingSaver struct{ err error }

func (f failingSaver) Save(context.Context, *cart.Ledger) error { return f.err }

func TestSubmit_CartSaveFailureReturnsOrder(t *testing.T) {
	orders := &mockOrders{ref: &domain.OrderRef{ID: "o1", Status: domain.OrderStatusPending}}
	ledger := cart.NewLedger()
	ledger.Add(shirt, "M")
	saveErr := errors.New("disk full")
	svc := NewService(orders, &mockSession{token: "tok"}, ledger, failingSaver{err: saveErr}, cart.FeePolicy{}, nil)

	ref, err := svc.Submit(context.Background(), ship)

	var notSaved *CartNotSavedError
	require.ErrorAs(t, err, &notSaved)
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, "o1", notSaved.Order.ID)
	require.NotNil(t, ref)
	assert.Equal(t, "o1", ref.ID)
	assert.True(t, ledger.IsEmpty())
	assert.Equal(t, 1, orders.calls())
}

func TestPreview(t *testing.T) {
	policy := cart.FeePolicy{Fee: decimal.NewFromInt(10), FreeThreshold: decimal.NewFromInt(50)}
	svc, ledger, _ := setup(t, &mockSession{}, &mockOrders{}, policy)

	assert.True(t, svc.Preview().Total.IsZero())

	ledger.Add(shirt, "M")
	totals := svc.Preview()
	assert.True(t, totals.DeliveryFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(20)))

	ledger.SetQuantity("p1", "M", 5)
	assert.True(t, svc.Preview().DeliveryFee.IsZero())
}
