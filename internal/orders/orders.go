// Package orders reads the order history of the signed-in user.
package orders

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type Backend interface {
	Orders(ctx context.Context, token string) ([]domain.Order, error)
	UserOrders(ctx context.Context, token string) ([]domain.Order, error)
	Order(ctx context.Context, token, id string) (*domain.Order, error)
}

type Authorizer interface {
	IsAdmin() bool
	Authorize(ctx context.Context, fn func(ctx context.Context, token string) error) error
}

type History struct {
	backend Backend
	session Authorizer
	logger  *zap.Logger
}

func NewHistory(backend Backend, sess Authorizer, l *zap.Logger) *History {
	return &History{backend: backend, session: sess, logger: logger.OrNop(l)}
}

// List returns every order for an admin and the user's own orders otherwise,
// newest first.
func (h *History) List(ctx context.Context) ([]domain.Order, error) {
	var list []domain.Order
	err := h.session.Authorize(ctx, func(ctx context.Context, token string) error {
		var err error
		if h.session.IsAdmin() {
			list, err = h.backend.Orders(ctx, token)
		} else {
			list, err = h.backend.UserOrders(ctx, token)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(list, func(a, b domain.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	h.logger.Debug("orders listed", zap.Int("count", len(list)))
	return list, nil
}

func (h *History) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o *domain.Order
	err := h.session.Authorize(ctx, func(ctx context.Context, token string) error {
		var err error
		o, err = h.backend.Order(ctx, token, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}
