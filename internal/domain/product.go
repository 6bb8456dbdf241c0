package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string
	Name string
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Images      []string
	Category    Category
	SubCategory string
	Sizes       []string
	Bestseller  bool
	CreatedAt   time.Time
}

// HasSize reports whether size is one of the product's declared sizes.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// PrimaryImage returns the first image path or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductDraft is what the back-office submits to create a product.
type ProductDraft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	SubCategory string
	Sizes       []string
	Images      []string
	Bestseller  bool
}
