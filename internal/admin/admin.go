// Package admin implements the back-office operations. Every call requires an
// admin session.
package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type Backend interface {
	Orders(ctx context.Context, token string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error)
	Users(ctx context.Context, token string) ([]domain.User, error)
	DeleteUser(ctx context.Context, token, id string) error
	SetUserAdmin(ctx context.Context, token, id string, isAdmin bool) (*domain.User, error)
	Products(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, token string, draft domain.ProductDraft) (*domain.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

type Authorizer interface {
	RequireAdmin() error
	Authorize(ctx context.Context, fn func(ctx context.Context, token string) error) error
}

type Service struct {
	backend  Backend
	session  Authorizer
	logger   *zap.Logger
	validate *validator.Validate
}

func NewService(backend Backend, sess Authorizer, l *zap.Logger) *Service {
	return &Service{
		backend:  backend,
		session:  sess,
		logger:   logger.OrNop(l),
		validate: apperr.NewValidator(),
	}
}

// run checks the admin precondition before fn gets the token.
func (s *Service) run(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	if err := s.session.RequireAdmin(); err != nil {
		return err
	}
	return s.session.Authorize(ctx, fn)
}

func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	var list []domain.Order
	err := s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		list, err = s.backend.Orders(ctx, token)
		return err
	})
	return list, err
}

// FilterOrdersByStatus is case-insensitive; an empty status keeps every order.
func FilterOrdersByStatus(orders []domain.Order, status string) []domain.Order {
	status = strings.TrimSpace(status)
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if status == "" || strings.EqualFold(o.Status.String(), status) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil || strings.TrimSpace(status) == "" {
		return nil, apperr.NewValidation("unknown order status "+status, "status")
	}

	var updated *domain.Order
	err = s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		updated, err = s.backend.UpdateOrderStatus(ctx, token, id, parsed)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", parsed.String()))
	return updated, nil
}

func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		users, err = s.backend.Users(ctx, token)
		return err
	})
	return users, err
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	err := s.run(ctx, func(ctx context.Context, token string) error {
		return s.backend.DeleteUser(ctx, token, id)
	})
	if err == nil {
		s.logger.Info("user deleted", zap.String("user_id", id))
	}
	return err
}

func (s *Service) SetAdmin(ctx context.Context, id string, isAdmin bool) (*domain.User, error) {
	var u *domain.User
	err := s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		u, err = s.backend.SetUserAdmin(ctx, token, id, isAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user role changed", zap.String("user_id", id), zap.Bool("admin", isAdmin))
	return u, nil
}

// ToggleAdmin flips the admin flag of u as it was last seen.
func (s *Service) ToggleAdmin(ctx context.Context, u domain.User) (*domain.User, error) {
	return s.SetAdmin(ctx, u.ID, !u.IsAdmin)
}

type productForm struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	CategoryID  string   `json:"category" validate:"required"`
	SubCategory string   `json:"subCategory" validate:"required"`
	Sizes       []string `json:"sizes" validate:"min=1,dive,required"`
	Images      []string `json:"images" validate:"min=1,dive,required"`
}

func (s *Service) CreateProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error) {
	if err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := s.checkDraft(draft); err != nil {
		return nil, err
	}

	var p *domain.Product
	err := s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		p, err = s.backend.CreateProduct(ctx, token, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) checkDraft(draft domain.ProductDraft) error {
	const message = "please fill in all product fields"
	err := apperr.CheckInput(s.validate, message, productForm{
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		CategoryID:  draft.CategoryID,
		SubCategory: draft.SubCategory,
		Sizes:       draft.Sizes,
		Images:      draft.Images,
	})

	var fields []string
	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		fields = vErr.Fields
	} else if err != nil {
		return err
	}
	// decimal prices are checked by hand
	if !draft.Price.IsPositive() {
		fields = append(fields, "price")
	}
	if len(fields) > 0 {
		return apperr.NewValidation(message, fields...)
	}
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.run(ctx, func(ctx context.Context, token string) error {
		return s.backend.DeleteProduct(ctx, token, id)
	})
	if err == nil {
		s.logger.Info("product deleted", zap.String("product_id", id))
	}
	return err
}

type Stats struct {
	Users    int
	Products int
	Orders   int
	Pending  int
	Revenue  decimal.Decimal // cancelled orders excluded
}

// Dashboard computes its figures from the live lists.
func (s *Service) Dashboard(ctx context.Context) (*Stats, error) {
	var (
		users    []domain.User
		orders   []domain.Order
		products []domain.Product
	)
	err := s.run(ctx, func(ctx context.Context, token string) error {
		var err error
		if users, err = s.backend.Users(ctx, token); err != nil {
			return err
		}
		if orders, err = s.backend.Orders(ctx, token); err != nil {
			return err
		}
		products, err = s.backend.Products(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Users:    len(users),
		Products: len(products),
		Orders:   len(orders),
		Revenue:  decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusPending {
			stats.Pending++
		}
		if o.Status != domain.OrderStatusCancelled {
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}
