package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog item with default cost and selling prices.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	CategoryID   *int            `json:"category_id,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"` // joined from categories
	SKU          string          `json:"sku"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CreatedBy    *int            `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProfitMargin is selling price minus cost price.
func (p Product) ProfitMargin() decimal.Decimal {
	return p.SellingPrice.Sub(p.CostPrice)
}

// ProfitPercentage is the margin as a percentage of cost, rounded to 2 places. Zero cost yields zero.
func (p Product) ProfitPercentage() decimal.Decimal {
	if p.CostPrice.IsZero() {
		return decimal.Zero
	}
	return p.ProfitMargin().Div(p.CostPrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// ProductInput holds the editable product fields.
type ProductInput struct {
	Name         string
	SKU          string
	CategoryID   *int
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// ProductFilter narrows ListProducts. Zero values mean no filter.
type ProductFilter struct {
	CategoryID *int
	Search     string // matches name or SKU, case-insensitive
}

// CatalogService manages categories and products.
type CatalogService interface {
	CreateCategory(ctx context.Context, p Principal, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	// CreateProduct adds a product. SKUs are unique; a duplicate returns ErrConflict.
	CreateProduct(ctx context.Context, p Principal, input ProductInput) (*Product, error)
	// UpdateProduct changes catalog fields. Prices already captured on order items are unaffected.
	UpdateProduct(ctx context.Context, p Principal, productID int, input ProductInput) (*Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
}
