package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductVariant is a colour/size combination of a product: the real stock-keeping unit.
type ProductVariant struct {
	shared.ShopAggregateRoot
	ProductID       uuid.UUID
	ColorName       string
	SizeName        string
	Barcode         string
	StockQuantity   int
	PurchasePrice   decimal.Decimal
	SingleSalePrice decimal.Decimal
	PackSalePrice   decimal.Decimal
	IsPack          bool
	UnitsPerPack    int
	// SingleVariantID links a pack variant to the sibling sold per unit
	SingleVariantID *uuid.UUID
}

// VariantPricing is the price configuration of a variant
type VariantPricing struct {
	PurchasePrice   decimal.Decimal
	SingleSalePrice decimal.Decimal
	PackSalePrice   decimal.Decimal
	IsPack          bool
	UnitsPerPack    int
}

// Validate checks the pricing rules
func (p VariantPricing) Validate() error {
	if p.PurchasePrice.IsNegative() || p.SingleSalePrice.IsNegative() || p.PackSalePrice.IsNegative() {
		return shared.ErrInvalidAmount.WithMessage("Prices cannot be negative")
	}
	if err := shared.CheckMoney("Prices", p.PurchasePrice, p.SingleSalePrice, p.PackSalePrice); err != nil {
		return err
	}
	if p.IsPack && p.UnitsPerPack < 1 {
		return shared.ErrInvalidInput.WithMessage("Pack variants need at least one unit per pack")
	}
	if p.UnitsPerPack < 0 {
		return shared.ErrInvalidInput.WithMessage("Units per pack cannot be negative")
	}
	return nil
}

// NewProductVariant creates a variant of product with an opening stock
func NewProductVariant(product *Product, color, size string, pricing VariantPricing, stock int) (*ProductVariant, error) {
	if product == nil {
		return nil, shared.ErrNotFound.WithMessage("Product not found")
	}
	if stock < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Stock quantity cannot be negative")
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}

	v := &ProductVariant{
		ShopAggregateRoot: shared.NewShopAggregateRoot(product.ShopID),
		ProductID:         product.ID,
		ColorName:         strings.TrimSpace(color),
		SizeName:          strings.TrimSpace(size),
		StockQuantity:     stock,
	}
	v.applyPricing(pricing)
	return v, nil
}

func (v *ProductVariant) applyPricing(p VariantPricing) {
	v.PurchasePrice = p.PurchasePrice
	v.SingleSalePrice = p.SingleSalePrice
	v.PackSalePrice = p.PackSalePrice
	v.IsPack = p.IsPack
	v.UnitsPerPack = p.UnitsPerPack
	if !v.IsPack && v.UnitsPerPack == 0 {
		v.UnitsPerPack = 1
	}
}

// UpdatePricing replaces the price configuration
func (v *ProductVariant) UpdatePricing(p VariantPricing) error {
	if err := p.Validate(); err != nil {
		return err
	}
	v.applyPricing(p)
	v.IncrementVersion()
	return nil
}

// SetStock sets an absolute stock level (stock count corrections)
func (v *ProductVariant) SetStock(qty int) error {
	if qty < 0 {
		return shared.ErrInvalidInput.WithMessage("Stock quantity cannot be negative")
	}
	v.StockQuantity = qty
	v.IncrementVersion()
	return nil
}

// LinkSingleVariant links the sibling sold per unit
func (v *ProductVariant) LinkSingleVariant(id uuid.UUID) {
	v.SingleVariantID = &id
}

// CanFulfil reports whether qty units are in stock
func (v *ProductVariant) CanFulfil(qty int) bool {
	return qty > 0 && v.StockQuantity >= qty
}

// DisplayName is the name shown on receipts, e.g. "Shirt / Red / M"
func (v *ProductVariant) DisplayName(productName string) string {
	parts := []string{productName}
	if v.ColorName != "" {
		parts = append(parts, v.ColorName)
	}
	if v.SizeName != "" {
		parts = append(parts, v.SizeName)
	}
	return strings.Join(parts, " / ")
}
