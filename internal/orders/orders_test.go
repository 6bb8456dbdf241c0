package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apitest"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type fixture struct {
	srv     *apitest.Server
	session *session.Manager
	history *History
	jane    string
	root    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	client, err := api.New(srv.APIURL())
	require.NoError(t, err)
	sess := session.NewManager(client, store.NewMemoryStore(), nil)
	return &fixture{
		srv:     srv,
		session: sess,
		history: NewHistory(client, sess, nil),
		jane:    srv.AddUser("jane@example.com", "jane", "pw", false),
		root:    srv.AddUser("root@example.com", "root", "pw", true),
	}
}

func (f *fixture) login(t *testing.T, email string) {
	t.Helper()
	_, err := f.session.Login(context.Background(), domain.Credentials{Email: email, Password: "pw"})
	require.NoError(t, err)
}

func TestList_Anonymous(t *testing.T) {
	f := setup(t)

	_, err := f.history.List(context.Background())
	assert.True(t, apperr.IsPrecondition(err))
}

func TestList_CustomerSeesOwnOrders(t *testing.T) {
	f := setup(t)
	f.srv.AddOrder(f.jane, 20, "pending")
	f.srv.AddOrder(f.root, 30, "shipped")
	f.login(t, "jane@example.com")

	list, err := f.history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.jane, list[0].UserID)
	assert.Equal(t, 1, f.srv.Count("GET", "/orders/user"))
}

func TestList_AdminSeesAll(t *testing.T) {
	f := setup(t)
	f.srv.AddOrder(f.jane, 20, "pending")
	f.srv.AddOrder(f.root, 30, "shipped")
	f.login(t, "root@example.com")

	list, err := f.history.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, f.srv.Count("GET", "/orders"))
}

func TestList_ExpiredSessionSignsOut(t *testing.T) {
	f := setup(t)
	f.login(t, "jane@example.com")
	f.srv.FailNext(401, "Not authorized, token failed")

	_, err := f.history.List(context.Background())
	assert.True(t, apperr.IsUnauthorized(err))
	assert.False(t, f.session.IsAuthenticated())
}

func TestGet(t *testing.T) {
	f := setup(t)
	id := f.srv.AddOrder(f.jane, 20, "processing")
	other := f.srv.AddOrder(f.root, 30, "pending")
	f.login(t, "jane@example.com")

	o, err := f.history.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, o.Status)

	_, err = f.history.Get(context.Background(), other)
	var apiErr *apperr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.True(t, f.session.IsAuthenticated())
}
