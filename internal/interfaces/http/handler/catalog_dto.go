package handler

import (
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the body for creating a product
type CreateProductRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	SKU      string `json:"sku" binding:"max=100"`
	Category string `json:"category" binding:"max=100"`
	Brand    string `json:"brand" binding:"max=100"`
}

// PricingRequest carries the price fields of a variant
type PricingRequest struct {
	PurchasePrice   decimal.Decimal `json:"purchase_price" binding:"dnonneg"`
	SingleSalePrice decimal.Decimal `json:"single_sale_price" binding:"dnonneg"`
	PackSalePrice   decimal.Decimal `json:"pack_sale_price" binding:"dnonneg"`
	IsPack          bool            `json:"is_pack"`
	UnitsPerPack    int             `json:"units_per_pack" binding:"gte=0"`
}

func (p PricingRequest) pricing() catalog.VariantPricing {
	return catalog.VariantPricing(p)
}

// CreateVariantRequest is the body for adding a variant to a product
type CreateVariantRequest struct {
	PricingRequest
	Color           string     `json:"color" binding:"max=50"`
	Size            string     `json:"size" binding:"max=50"`
	Barcode         string     `json:"barcode" binding:"max=100"`
	Stock           int        `json:"stock" binding:"gte=0"`
	SingleVariantID *uuid.UUID `json:"single_variant_id"`
}

func (r CreateVariantRequest) input() catalogapp.CreateVariantInput {
	return catalogapp.CreateVariantInput{
		Color:           r.Color,
		Size:            r.Size,
		Barcode:         r.Barcode,
		Pricing:         r.pricing(),
		Stock:           r.Stock,
		SingleVariantID: r.SingleVariantID,
	}
}

// UpdateVariantRequest replaces the descriptive and price fields of a variant
type UpdateVariantRequest struct {
	PricingRequest
	Color           string     `json:"color" binding:"max=50"`
	Size            string     `json:"size" binding:"max=50"`
	Barcode         string     `json:"barcode" binding:"max=100"`
	SingleVariantID *uuid.UUID `json:"single_variant_id"`
}

func (r UpdateVariantRequest) input() catalogapp.UpdateVariantInput {
	return catalogapp.UpdateVariantInput{
		Color:           r.Color,
		Size:            r.Size,
		Barcode:         r.Barcode,
		Pricing:         r.pricing(),
		SingleVariantID: r.SingleVariantID,
	}
}

// QuantityRequest is a positive unit count
type QuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// QuoteQuery is the quantity to price
type QuoteQuery struct {
	Quantity int `form:"quantity" binding:"required,gt=0"`
}

// ProductResponse is a product, optionally with its variants
type ProductResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	SKU           string            `json:"sku,omitempty"`
	Category      string            `json:"category,omitempty"`
	Brand         string            `json:"brand,omitempty"`
	StockQuantity int               `json:"stock_quantity"`
	Variants      []VariantResponse `json:"variants,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		Category:      p.CategoryName,
		Brand:         p.BrandName,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
	}
}

// VariantResponse is a sellable variant
type VariantResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Color           string          `json:"color,omitempty"`
	Size            string          `json:"size,omitempty"`
	Barcode         string          `json:"barcode,omitempty"`
	StockQuantity   int             `json:"stock_quantity"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SingleSalePrice decimal.Decimal `json:"single_sale_price"`
	PackSalePrice   decimal.Decimal `json:"pack_sale_price"`
	IsPack          bool            `json:"is_pack"`
	UnitsPerPack    int             `json:"units_per_pack"`
	SingleVariantID *uuid.UUID      `json:"single_variant_id,omitempty"`
	Version         int             `json:"version"`
}

func toVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:              v.ID,
		ProductID:       v.ProductID,
		Color:           v.ColorName,
		Size:            v.SizeName,
		Barcode:         v.Barcode,
		StockQuantity:   v.StockQuantity,
		PurchasePrice:   v.PurchasePrice,
		SingleSalePrice: v.SingleSalePrice,
		PackSalePrice:   v.PackSalePrice,
		IsPack:          v.IsPack,
		UnitsPerPack:    v.UnitsPerPack,
		SingleVariantID: v.SingleVariantID,
		Version:         v.Version,
	}
}

// QuoteResponse is the price of a quantity of one variant
type QuoteResponse struct {
	VariantID uuid.UUID       `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	NumPacks  int             `json:"num_packs"`
	Leftover  int             `json:"leftover"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

func toQuoteResponse(variantID uuid.UUID, p catalog.LinePrice) QuoteResponse {
	return QuoteResponse{
		VariantID: variantID,
		Quantity:  p.Quantity,
		NumPacks:  p.NumPacks,
		Leftover:  p.Leftover,
		UnitPrice: p.UnitPrice,
		Total:     p.Revenue,
	}
}
