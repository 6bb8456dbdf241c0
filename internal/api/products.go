package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "list products"
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/products"})
	if err != nil {
		return nil, err
	}

	var dtos []productDTO
	if err := decodeJSON(op, resp.body, &dtos); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		p, err := c.toProduct(op, dto)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "list categories"
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/categories"})
	if err != nil {
		return nil, err
	}

	var dtos []categoryDTO
	if err := decodeJSON(op, resp.body, &dtos); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(dtos))
	for _, dto := range dtos {
		if err := c.check(op, dto); err != nil {
			return nil, err
		}
		categories = append(categories, domain.Category{ID: dto.ID, Name: dto.Name})
	}
	return categories, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, draft domain.ProductDraft) (*domain.Product, error) {
	const op = "create product"
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/products",
		token:  token,
		body: productRequestDTO{
			Name:        draft.Name,
			Description: draft.Description,
			Price:       draft.Price.InexactFloat64(),
			Category:    draft.CategoryID,
			SubCategory: draft.SubCategory,
			Sizes:       draft.Sizes,
			Image:       draft.Images,
			Bestseller:  draft.Bestseller,
			Date:        time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	var dto productDTO
	if err := decodeJSON(op, resp.body, &dto); err != nil {
		return nil, err
	}
	p, err := c.toProduct(op, dto)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/products/" + url.PathEscape(id),
		token:  token,
	})
	return err
}

func (c *Client) toProduct(op string, dto productDTO) (domain.Product, error) {
	if err := c.check(op, dto); err != nil {
		return domain.Product{}, err
	}
	p, err := dto.toDomain()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w: %v", op, apperr.ErrInvalidResponse, err)
	}
	return p, nil
}
