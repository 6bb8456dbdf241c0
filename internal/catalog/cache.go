// Package catalog keeps the product list in memory and filters it for display.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Cache is empty until the first successful load.
type Cache struct {
	source Source
	logger *zap.Logger
	sfg    singleflight.Group // collapses concurrent loads

	mu         sync.RWMutex
	loaded     bool
	products   []domain.Product
	categories []domain.Category
}

func NewCache(source Source, l *zap.Logger) *Cache {
	return &Cache{source: source, logger: logger.OrNop(l)}
}

// Load fetches the catalog once. Later calls are no-ops after a success.
func (c *Cache) Load(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.fetch(ctx)
}

// Refresh refetches even when already loaded. A failure keeps the previous contents.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.fetch(ctx)
}

func (c *Cache) fetch(ctx context.Context) error {
	_, err, shared := c.sfg.Do("catalog", func() (interface{}, error) {
		products, err := c.source.Products(ctx)
		if err != nil {
			return nil, err
		}

		categories, err := c.source.Categories(ctx)
		if err != nil {
			c.logger.Warn("categories unavailable", zap.Error(err))
			categories = nil
		}

		c.mu.Lock()
		c.products = products
		c.categories = categories
		c.loaded = true
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("catalog load failed", zap.Error(err))
		return fmt.Errorf("load catalog: %w", err)
	}
	c.logger.Debug("catalog loaded", zap.Int("products", len(c.Products())), zap.Bool("shared", shared))
	return nil
}

func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Products returns a copy in catalog order.
func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product{}, c.products...)
}

func (c *Cache) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category{}, c.categories...)
}

func (c *Cache) Find(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *Cache) Filter(q Query) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Filter(c.products, q)
}

// Latest returns up to n products, newest first.
func (c *Cache) Latest(n int) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Latest(c.products, n)
}

func (c *Cache) Bestsellers(n int) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return limit(Filter(c.products, Query{BestsellerOnly: true}), n)
}

// Related returns up to n other products sharing p's category and sub-category.
func (c *Cache) Related(p domain.Product, n int) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Related(c.products, p, n)
}
