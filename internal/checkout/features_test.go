package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apitest"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type checkoutTestContext struct {
	t *testing.T

	srv      *apitest.Server
	client   *api.Client
	store    store.Store
	session  *session.Manager
	ledger   *cart.Ledger
	checkout *checkout.Service

	before []byte
	ref    *domain.OrderRef
	err    error
}

func (c *checkoutTestContext) reset() error {
	c.srv = apitest.New(c.t)
	client, err := api.New(c.srv.APIURL())
	if err != nil {
		return err
	}
	c.client = client
	c.store = store.NewMemoryStore()
	c.session = session.NewManager(client, c.store, nil)
	c.ledger = cart.NewLedger()
	c.checkout = checkout.NewService(client, c.session, c.ledger, cart.NewRepository(c.store, nil), cart.FeePolicy{}, nil)
	c.before = nil
	c.ref = nil
	c.err = nil
	return nil
}

func (c *checkoutTestContext) theBackendHasACustomer(email, password string) error {
	c.srv.AddUser(email, "jane", password, false)
	return nil
}

func (c *checkoutTestContext) theCatalogHasProduct(id string, price int, size string) error {
	c.srv.AddProduct(apitest.Product{ID: id, Name: "Product " + id, Price: float64(price), Sizes: []string{size}})
	return nil
}

func (c *checkoutTestContext) anEmptyCart() error {
	c.ledger.Clear()
	return nil
}

func (c *checkoutTestContext) iAmNotSignedIn() error {
	return c.session.Logout(context.Background())
}

func (c *checkoutTestContext) iAmSignedInAs(email, password string) error {
	_, err := c.session.Login(context.Background(), domain.Credentials{Email: email, Password: password})
	return err
}

func (c *checkoutTestContext) iSignInAs(email, password string) error {
	_, c.err = c.session.Login(context.Background(), domain.Credentials{Email: email, Password: password})
	return nil
}

func (c *checkoutTestContext) iAddProduct(id, size string) error {
	products, err := c.client.Products(context.Background())
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == id {
			c.ledger.Add(p, size)
			return nil
		}
	}
	return fmt.Errorf("product %q not in catalog", id)
}

func (c *checkoutTestContext) iSetTheQuantity(id, size string, n int) error {
	c.ledger.SetQuantity(id, size, n)
	return nil
}

func (c *checkoutTestContext) theBackendFailsTheNextRequest(status int, message string) error {
	c.srv.FailNext(status, message)
	return nil
}

func (c *checkoutTestContext) iSubmitTheOrder(name, address string) error {
	before, err := json.Marshal(c.ledger.Snapshot())
	if err != nil {
		return err
	}
	c.before = before
	c.ref, c.err = c.checkout.Submit(context.Background(), domain.ShippingDetails{Name: name, Address: address})
	return nil
}

func (c *checkoutTestContext) iLogOut() error {
	return c.session.Logout(context.Background())
}

func (c *checkoutTestContext) theCartHasLineItems(n int) error {
	if got := c.ledger.Len(); got != n {
		return fmt.Errorf("expected %d line items, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) productHasQuantity(id, size string, qty int) error {
	item, ok := c.ledger.Get(id, size)
	if !ok {
		return fmt.Errorf("no line item for %s/%s", id, size)
	}
	if item.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, item.Quantity)
	}
	return nil
}

func (c *checkoutTestContext) theSubtotalIs(amount int) error {
	if got := c.ledger.Subtotal(); !got.Equal(decimal.NewFromInt(int64(amount))) {
		return fmt.Errorf("expected subtotal %d, got %s", amount, got)
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionFailsWithPrecondition(condition string) error {
	var pErr *apperr.PreconditionError
	if !errors.As(c.err, &pErr) {
		return fmt.Errorf("expected PreconditionError, got %v", c.err)
	}
	if pErr.Condition != condition {
		return fmt.Errorf("expected condition %q, got %q", condition, pErr.Condition)
	}
	return nil
}

func (c *checkoutTestContext) failsWithMessage(message string) error {
	var apiErr *apperr.APIError
	if !errors.As(c.err, &apiErr) {
		return fmt.Errorf("expected APIError, got %v", c.err)
	}
	if apiErr.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, apiErr.Message)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsUnchanged() error {
	after, err := json.Marshal(c.ledger.Snapshot())
	if err != nil {
		return err
	}
	if string(after) != string(c.before) {
		return fmt.Errorf("cart changed:\nbefore %s\nafter  %s", c.before, after)
	}
	return nil
}

func (c *checkoutTestContext) anOrderIsCreated() error {
	if c.err != nil {
		return fmt.Errorf("expected an order but got error: %v", c.err)
	}
	if c.ref == nil || c.ref.ID == "" {
		return errors.New("expected an order reference")
	}
	if c.ref.Status != domain.OrderStatusPending {
		return fmt.Errorf("expected pending order, got %s", c.ref.Status)
	}
	return nil
}

func (c *checkoutTestContext) theBackendHoldsOrders(n int) error {
	if got := c.srv.OrderCount(); got != n {
		return fmt.Errorf("expected %d orders on the backend, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) iAmAnonymous() error {
	if c.session.IsAuthenticated() {
		return errors.New("expected anonymous session")
	}
	return nil
}

func (c *checkoutTestContext) noCredentialsArePersisted() error {
	for _, key := range []string{"site", "site.user"} {
		if _, err := c.store.Get(context.Background(), key); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("expected %q to be cleared, got %v", key, err)
		}
	}
	return nil
}

func initializeScenario(ctx *godog.ScenarioContext, t *testing.T) {
	tc := &checkoutTestContext{t: t}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^the backend has a customer "([^"]*)" with password "([^"]*)"$`, tc.theBackendHasACustomer)
	ctx.Step(`^the catalog has product "([^"]*)" priced (\d+) in size "([^"]*)"$`, tc.theCatalogHasProduct)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^I am not signed in$`, tc.iAmNotSignedIn)
	ctx.Step(`^I am signed in as "([^"]*)" with password "([^"]*)"$`, tc.iAmSignedInAs)
	ctx.Step(`^the backend fails the next request with status (\d+) and message "([^"]*)"$`, tc.theBackendFailsTheNextRequest)

	// When steps
	ctx.Step(`^I add product "([^"]*)" in size "([^"]*)"$`, tc.iAddProduct)
	ctx.Step(`^I set the quantity of product "([^"]*)" in size "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantity)
	ctx.Step(`^I submit the order for "([^"]*)" at "([^"]*)"$`, tc.iSubmitTheOrder)
	ctx.Step(`^I sign in as "([^"]*)" with password "([^"]*)"$`, tc.iSignInAs)
	ctx.Step(`^I log out$`, tc.iLogOut)

	// Then steps
	ctx.Step(`^the cart has (\d+) line items?$`, tc.theCartHasLineItems)
	ctx.Step(`^product "([^"]*)" in size "([^"]*)" has quantity (\d+)$`, tc.productHasQuantity)
	ctx.Step(`^the subtotal is (\d+)$`, tc.theSubtotalIs)
	ctx.Step(`^the submission fails with precondition "([^"]*)"$`, tc.theSubmissionFailsWithPrecondition)
	ctx.Step(`^the submission fails with "([^"]*)"$`, tc.failsWithMessage)
	ctx.Step(`^signing in fails with "([^"]*)"$`, tc.failsWithMessage)
	ctx.Step(`^the cart is unchanged$`, tc.theCartIsUnchanged)
	ctx.Step(`^an order is created$`, tc.anOrderIsCreated)
	ctx.Step(`^the backend holds (\d+) orders?$`, tc.theBackendHoldsOrders)
	ctx.Step(`^I am anonymous$`, tc.iAmAnonymous)
	ctx.Step(`^no credentials are persisted$`, tc.noCredentialsArePersisted)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) { initializeScenario(sc, t) },
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
