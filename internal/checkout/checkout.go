// Package checkout turns the cart into a backend order.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const ConditionCartEmpty = "cart is empty"

// CartNotSavedError means the order was placed and the cart emptied, but the empty
// cart could not be persisted. The stored cart still holds the ordered items.
type CartNotSavedError struct {
	Order domain.OrderRef
	Err   error
}

func (e *CartNotSavedError) Error() string {
	return fmt.Sprintf("order %s placed but the cart could not be cleared: %v", e.Order.ID, e.Err)
}

func (e *CartNotSavedError) Unwrap() error { return e.Err }

type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, req api.OrderRequest) (*domain.OrderRef, error)
}

type Authorizer interface {
	IsAuthenticated() bool
	Authorize(ctx context.Context, fn func(ctx context.Context, token string) error) error
}

type CartSaver interface {
	Save(ctx context.Context, l *cart.Ledger) error
}

type Service struct {
	orders   OrderCreator
	session  Authorizer
	ledger   *cart.Ledger
	carts    CartSaver
	policy   cart.FeePolicy
	logger   *zap.Logger
	validate *validator.Validate
}

func NewService(orders OrderCreator, sess Authorizer, ledger *cart.Ledger, carts CartSaver, policy cart.FeePolicy, l *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		session:  sess,
		ledger:   ledger,
		carts:    carts,
		policy:   policy,
		logger:   logger.OrNop(l),
		validate: apperr.NewValidator(),
	}
}

type shippingForm struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Submit places an order for the cart contents. The cart is cleared only when the
// backend confirms creation; on any failure it is left exactly as it was. A
// *CartNotSavedError comes with a non-nil reference: the order was placed.
func (s *Service) Submit(ctx context.Context, shipping domain.ShippingDetails) (*domain.OrderRef, error) {
	if !s.session.IsAuthenticated() {
		return nil, apperr.NewPrecondition(session.ConditionAuthRequired)
	}
	if s.ledger.IsEmpty() {
		return nil, apperr.NewPrecondition(ConditionCartEmpty)
	}
	if err := apperr.CheckInput(s.validate, "please fill in all shipping details", shippingForm(shipping)); err != nil {
		return nil, err
	}

	req := s.buildRequest(shipping)

	var ref *domain.OrderRef
	err := s.session.Authorize(ctx, func(ctx context.Context, token string) error {
		var err error
		ref, err = s.orders.CreateOrder(ctx, token, req)
		return err
	})
	if err != nil {
		s.logger.Warn("order submission failed",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		return nil, err
	}

	s.ledger.Clear()
	s.logger.Info("order placed",
		zap.String("order_id", ref.ID),
		zap.String("status", ref.Status.String()),
		zap.String("total", req.TotalAmount.String()))

	if s.carts != nil {
		if err := s.carts.Save(ctx, s.ledger); err != nil {
			s.logger.Warn("failed to persist cleared cart", zap.String("order_id", ref.ID), zap.Error(err))
			// the order exists; callers get the reference along with the error
			return ref, &CartNotSavedError{Order: *ref, Err: err}
		}
	}
	return ref, nil
}

// Preview returns the totals Submit would charge.
func (s *Service) Preview() cart.Totals {
	return s.ledger.Totals(s.policy)
}

func (s *Service) buildRequest(shipping domain.ShippingDetails) api.OrderRequest {
	items := s.ledger.Items()
	totals := s.policy.Apply(sumLines(items), len(items) == 0)

	lines := make([]api.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, api.OrderLine{
			ProductID: it.ProductID,
			Size:      it.Variant,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Total:     it.LineTotal(),
		})
	}

	return api.OrderRequest{
		Items:          lines,
		TotalAmount:    totals.Total,
		Shipping:       shipping,
		IdempotencyKey: uuid.NewString(),
	}
}

func sumLines(items []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
