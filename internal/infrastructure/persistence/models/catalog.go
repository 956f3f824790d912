package models

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ShopAggregateModel
	Name          string `gorm:"type:varchar(200);not null"`
	SKU           string `gorm:"column:sku;type:varchar(100);index"`
	CategoryName  string `gorm:"type:varchar(100)"`
	BrandName     string `gorm:"type:varchar(100)"`
	StockQuantity int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		Name:              m.Name,
		SKU:               m.SKU,
		CategoryName:      m.CategoryName,
		BrandName:         m.BrandName,
		StockQuantity:     m.StockQuantity,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainShopAggregateRoot(p.ShopAggregateRoot)
	m.Name = p.Name
	m.SKU = p.SKU
	m.CategoryName = p.CategoryName
	m.BrandName = p.BrandName
	m.StockQuantity = p.StockQuantity
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductVariantModel is the persistence model for ProductVariant.
// stock_quantity is only changed through conditional updates, never by Save of a stale copy.
type ProductVariantModel struct {
	ShopAggregateModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ColorName       string          `gorm:"type:varchar(100)"`
	SizeName        string          `gorm:"type:varchar(50)"`
	Barcode         string          `gorm:"type:varchar(100);index"`
	StockQuantity   int             `gorm:"not null;default:0;check:stock_quantity >= 0"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SingleSalePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PackSalePrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsPack          bool            `gorm:"not null;default:false"`
	UnitsPerPack    int             `gorm:"not null;default:1"`
	SingleVariantID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		ProductID:         m.ProductID,
		ColorName:         m.ColorName,
		SizeName:          m.SizeName,
		Barcode:           m.Barcode,
		StockQuantity:     m.StockQuantity,
		PurchasePrice:     m.PurchasePrice,
		SingleSalePrice:   m.SingleSalePrice,
		PackSalePrice:     m.PackSalePrice,
		IsPack:            m.IsPack,
		UnitsPerPack:      m.UnitsPerPack,
		SingleVariantID:   m.SingleVariantID,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.FromDomainShopAggregateRoot(v.ShopAggregateRoot)
	m.ProductID = v.ProductID
	m.ColorName = v.ColorName
	m.SizeName = v.SizeName
	m.Barcode = v.Barcode
	m.StockQuantity = v.StockQuantity
	m.PurchasePrice = v.PurchasePrice
	m.SingleSalePrice = v.SingleSalePrice
	m.PackSalePrice = v.PackSalePrice
	m.IsPack = v.IsPack
	m.UnitsPerPack = v.UnitsPerPack
	m.SingleVariantID = v.SingleVariantID
}

// ProductVariantModelFromDomain creates a new persistence model from a domain ProductVariant.
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{}
	m.FromDomain(v)
	return m
}
