package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Wire shapes of the backend. They are validated and converted into domain types
// before anything else sees them.

// ref is a reference that the backend sends either as a bare id or as a populated object.
type ref struct {
	ID   string
	Name string
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID, r.Name = obj.ID, obj.Name
	return nil
}

// flexTime accepts RFC 3339 strings and unix milliseconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

type userDTO struct {
	ID        string   `json:"_id" validate:"required"`
	Email     string   `json:"email" validate:"required"`
	Username  string   `json:"username"`
	IsAdmin   bool     `json:"isAdmin"`
	CreatedAt flexTime `json:"createdAt"`
}

func (u userDTO) toDomain() domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.Time,
	}
}

type loginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponseDTO carries the profile either inline or under "user".
type loginResponseDTO struct {
	Token string `json:"token"`
	userDTO
	User *userDTO `json:"user"`
}

func (r *loginResponseDTO) profile() userDTO {
	if r.User != nil {
		return *r.User
	}
	return r.userDTO
}

type registerRequestDTO struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponseDTO struct {
	userDTO
	User *userDTO `json:"user"`
}

type categoryDTO struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type productDTO struct {
	ID          string          `json:"_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       []string        `json:"image"`
	Category    ref             `json:"category"`
	SubCategory string          `json:"subCategory"`
	Sizes       []string        `json:"sizes"`
	Bestseller  bool            `json:"bestseller"`
	Date        flexTime        `json:"date"`
	CreatedAt   flexTime        `json:"createdAt"`
}

func (p productDTO) toDomain() (domain.Product, error) {
	if p.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("product %s has negative price %s", p.ID, p.Price)
	}
	created := p.Date.Time
	if created.IsZero() {
		created = p.CreatedAt.Time
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Image,
		Category:    domain.Category{ID: p.Category.ID, Name: p.Category.Name},
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		Bestseller:  p.Bestseller,
		CreatedAt:   created,
	}, nil
}

type productRequestDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory"`
	Sizes       []string `json:"sizes"`
	Image       []string `json:"image"`
	Bestseller  bool     `json:"bestseller"`
	Date        string   `json:"date"`
}

type shippingDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type orderItemDTO struct {
	ProductID ref             `json:"productId"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

type orderDTO struct {
	ID              string          `json:"_id" validate:"required"`
	User            ref             `json:"user"`
	Items           []orderItemDTO  `json:"items" validate:"dive"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingDetails shippingDTO     `json:"shippingDetails"`
	Status          string          `json:"status"`
	CreatedAt       flexTime        `json:"createdAt"`
}

func (o orderDTO) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		total := it.Total
		if total.IsZero() {
			total = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID.ID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Total:     total,
		})
	}
	return domain.Order{
		ID:          o.ID,
		UserID:      o.User.ID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Shipping:    domain.ShippingDetails{Name: o.ShippingDetails.Name, Address: o.ShippingDetails.Address},
		Status:      domain.OrderStatusOrPending(o.Status),
		CreatedAt:   o.CreatedAt.Time,
	}
}

type orderItemRequestDTO struct {
	ProductID string  `json:"productId"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

type createOrderRequestDTO struct {
	Items           []orderItemRequestDTO `json:"items"`
	TotalAmount     float64               `json:"totalAmount"`
	ShippingDetails shippingDTO           `json:"shippingDetails"`
}

// createOrderResponseDTO accepts the full order document or a bare {orderId, status}.
type createOrderResponseDTO struct {
	ID      string `json:"_id"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type updateStatusRequestDTO struct {
	Status string `json:"status"`
}

type updateAdminRequestDTO struct {
	IsAdmin bool `json:"isAdmin"`
}
