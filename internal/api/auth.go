package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type LoginResult struct {
	Token string
	User  domain.User
}

// Login exchanges credentials for a token and the user profile.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	const op = "login"
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequestDTO{Email: creds.Email, Password: creds.Password},
	})
	if err != nil {
		return nil, err
	}

	var dto loginResponseDTO
	if err := decodeJSON(op, resp.body, &dto); err != nil {
		return nil, err
	}
	if dto.Token == "" {
		return nil, fmt.Errorf("%s: %w: missing token", op, apperr.ErrInvalidResponse)
	}
	profile := dto.profile()
	if err := c.check(op, profile); err != nil {
		return nil, err
	}

	return &LoginResult{Token: dto.Token, User: profile.toDomain()}, nil
}

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	const op = "register"
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body: registerRequestDTO{
			Email:    reg.Email,
			Username: reg.Username,
			Password: reg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	var dto registerResponseDTO
	if err := decodeJSON(op, resp.body, &dto); err != nil {
		return nil, err
	}
	profile := dto.userDTO
	if dto.User != nil {
		profile = *dto.User
	}
	if err := c.check(op, profile); err != nil {
		return nil, err
	}

	user := profile.toDomain()
	return &user, nil
}
