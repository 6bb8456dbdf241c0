package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) Users(ctx context.Context, token string) ([]domain.User, error) {
	const op = "list users"
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/users", token: token})
	if err != nil {
		return nil, err
	}

	var dtos []userDTO
	if err := decodeJSON(op, resp.body, &dtos); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(dtos))
	for _, dto := range dtos {
		if err := c.check(op, dto); err != nil {
			return nil, err
		}
		users = append(users, dto.toDomain())
	}
	return users, nil
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/users/" + url.PathEscape(id),
		token:  token,
	})
	return err
}

func (c *Client) SetUserAdmin(ctx context.Context, token, id string, isAdmin bool) (*domain.User, error) {
	const op = "update user"
	resp, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/users/" + url.PathEscape(id),
		token:  token,
		body:   updateAdminRequestDTO{IsAdmin: isAdmin},
	})
	if err != nil {
		return nil, err
	}

	var dto userDTO
	if err := decodeJSON(op, resp.body, &dto); err != nil {
		return nil, err
	}
	if err := c.check(op, dto); err != nil {
		return nil, err
	}
	user := dto.toDomain()
	return &user, nil
}
