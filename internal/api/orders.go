package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrderLine struct {
	ProductID string
	Size      string
	Quantity  int
	Price     decimal.Decimal
	Total     decimal.Decimal
}

type OrderRequest struct {
	Items          []OrderLine
	TotalAmount    decimal.Decimal
	Shipping       domain.ShippingDetails
	IdempotencyKey string
}

// CreateOrder succeeds only on 201 Created with an order id in the body.
func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (*domain.OrderRef, error) {
	const op = "create order"

	payload := createOrderRequestDTO{
		Items:       make([]orderItemRequestDTO, 0, len(req.Items)),
		TotalAmount: req.TotalAmount.InexactFloat64(),
		ShippingDetails: shippingDTO{
			Name:    req.Shipping.Name,
			Address: req.Shipping.Address,
		},
	}
	for _, it := range req.Items {
		payload.Items = append(payload.Items, orderItemRequestDTO{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
			Total:     it.Total.InexactFloat64(),
		})
	}

	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	resp, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/orders",
		token:   token,
		body:    payload,
		headers: headers,
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusCreated {
		return nil, &apperr.APIError{Status: resp.status, Message: "order could not be processed"}
	}

	var dto createOrderResponseDTO
	if err := decodeJSON(op, resp.body, &dto); err != nil {
		return nil, err
	}
	id := dto.ID
	if id == "" {
		id = dto.OrderID
	}
	if id == "" {
		return nil, fmt.Errorf("%s: %w: missing order id", op, apperr.ErrInvalidResponse)
	}
	c.warnUnknownStatus(op, id, dto.Status)

	return &domain.OrderRef{ID: id, Status: domain.OrderStatusOrPending(dto.Status)}, nil
}

// Orders lists every order; admin only on the backend.
func (c *Client) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	return c.listOrders(ctx, "list orders", "/orders", token)
}

// UserOrders lists the orders of the token's owner.
func (c *Client) UserOrders(ctx context.Context, token string) ([]domain.Order, error) {
	return c.listOrders(ctx, "list user orders", "/orders/user", token)
}

func (c *Client) Order(ctx context.Context, token, id string) (*domain.Order, error) {
	const op = "get order"
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/orders/" + url.PathEscape(id),
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return c.decodeOrder(op, resp.body)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error) {
	const op = "update order status"
	resp, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/orders/" + url.PathEscape(id),
		token:  token,
		body:   updateStatusRequestDTO{Status: status.String()},
	})
	if err != nil {
		return nil, err
	}
	return c.decodeOrder(op, resp.body)
}

func (c *Client) listOrders(ctx context.Context, op, path, token string) ([]domain.Order, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, token: token})
	if err != nil {
		return nil, err
	}

	var dtos []orderDTO
	if err := decodeJSON(op, resp.body, &dtos); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := c.toOrder(op, dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) decodeOrder(op string, body []byte) (*domain.Order, error) {
	var dto orderDTO
	if err := decodeJSON(op, body, &dto); err != nil {
		return nil, err
	}
	o, err := c.toOrder(op, dto)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) toOrder(op string, dto orderDTO) (domain.Order, error) {
	if err := c.check(op, dto); err != nil {
		return domain.Order{}, err
	}
	c.warnUnknownStatus(op, dto.ID, dto.Status)
	return dto.toDomain(), nil
}

func (c *Client) warnUnknownStatus(op, id, status string) {
	if _, err := domain.ParseOrderStatus(status); err != nil {
		c.logger.Warn("unknown order status, shown as pending",
			zap.String("op", op),
			zap.String("order_id", id),
			zap.String("status", status))
	}
}
