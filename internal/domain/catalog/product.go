package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Product groups the colour/size variants that are actually stocked.
// StockQuantity is the sum of variant stock, refreshed after every variant change.
type Product struct {
	shared.ShopAggregateRoot
	Name          string
	SKU           string
	CategoryName  string
	BrandName     string
	StockQuantity int
}

// NewProduct creates a new product
func NewProduct(shopID uuid.UUID, name, sku string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.ErrInvalidInput.WithMessage("Product name cannot exceed 200 characters")
	}
	return &Product{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Name:              name,
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
	}, nil
}

// SetClassification sets the denormalised category and brand names
func (p *Product) SetClassification(category, brand string) {
	p.CategoryName = strings.TrimSpace(category)
	p.BrandName = strings.TrimSpace(brand)
	p.Touch()
}

// RefreshStock overwrites the cached stock with the aggregated variant total
func (p *Product) RefreshStock(total int) {
	if total < 0 {
		total = 0
	}
	p.StockQuantity = total
	p.Touch()
}
