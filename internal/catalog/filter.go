package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Sort string

const (
	SortRelevant  Sort = "relevant"
	SortLowToHigh Sort = "low-to-high"
	SortHighToLow Sort = "high-to-low"
)

// ParseSort accepts the sort names and their short forms; empty means relevant.
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortRelevant):
		return SortRelevant, nil
	case string(SortLowToHigh), "low-high":
		return SortLowToHigh, nil
	case string(SortHighToLow), "high-low":
		return SortHighToLow, nil
	}
	return "", fmt.Errorf("unknown sort %q (want relevant, low-to-high or high-to-low)", s)
}

// Query is a set of predicates; zero fields match everything.
type Query struct {
	Search            string
	SearchDescription bool
	Categories        []string // category names
	SubCategories     []string
	CategoryID        string
	BestsellerOnly    bool
	Sort              Sort
}

// Filter never modifies products; the result is a new slice.
func Filter(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !matchesSearch(p, search, q.SearchDescription) {
			continue
		}
		if len(q.Categories) > 0 && !containsFold(q.Categories, p.Category.Name) {
			continue
		}
		if len(q.SubCategories) > 0 && !containsFold(q.SubCategories, p.SubCategory) {
			continue
		}
		if q.CategoryID != "" && p.Category.ID != q.CategoryID {
			continue
		}
		if q.BestsellerOnly && !p.Bestseller {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortLowToHigh:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortHighToLow:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	}
	return out
}

func Latest(products []domain.Product, n int) []domain.Product {
	out := slices.Clone(products)
	slices.SortStableFunc(out, func(a, b domain.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return limit(out, n)
}

func Related(products []domain.Product, p domain.Product, n int) []domain.Product {
	var out []domain.Product
	for _, other := range products {
		if other.ID == p.ID {
			continue
		}
		if strings.EqualFold(other.Category.Name, p.Category.Name) && strings.EqualFold(other.SubCategory, p.SubCategory) {
			out = append(out, other)
		}
	}
	return limit(out, n)
}

func matchesSearch(p domain.Product, search string, description bool) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	return description && strings.Contains(strings.ToLower(p.Description), search)
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func limit(products []domain.Product, n int) []domain.Product {
	if n >= 0 && len(products) > n {
		return products[:n]
	}
	return products
}
