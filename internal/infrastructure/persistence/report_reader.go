package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportReader implements report.Reader with read-only joins.
// Sale lines carry the order line snapshot (quantity, line total) together with
// the variant's current purchase price and stock.
type GormReportReader struct {
	db *gorm.DB
}

// NewGormReportReader creates a new GormReportReader
func NewGormReportReader(db *gorm.DB) *GormReportReader {
	return &GormReportReader{db: db}
}

type saleLineRow struct {
	OrderID              uuid.UUID
	ProductID            uuid.UUID
	VariantID            uuid.UUID
	ProductName          string
	SKU                  string `gorm:"column:sku"`
	CategoryName         string
	ColorName            string
	SizeName             string
	Quantity             int
	LineTotal            decimal.Decimal
	CurrentPurchasePrice decimal.Decimal
	CurrentStock         int
	SoldAt               time.Time
}

// SaleLines returns the lines of completed orders created in [from, to)
func (r *GormReportReader) SaleLines(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]report.SaleLine, error) {
	var rows []saleLineRow
	err := r.db.WithContext(ctx).Table("order_items oi").
		Select(`
			oi.order_id,
			oi.product_id,
			oi.variant_id,
			COALESCE(p.name, oi.product_name) AS product_name,
			COALESCE(p.sku, '') AS sku,
			COALESCE(p.category_name, '') AS category_name,
			oi.color_name,
			oi.size_name,
			oi.quantity,
			oi.price AS line_total,
			COALESCE(v.purchase_price, 0) AS current_purchase_price,
			COALESCE(v.stock_quantity, 0) AS current_stock,
			o.created_at AS sold_at
		`).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("LEFT JOIN product_variants v ON v.id = oi.variant_id").
		Joins("LEFT JOIN products p ON p.id = oi.product_id").
		Where("o.shop_id = ?", shopID).
		Where("o.status = ?", trade.OrderStatusCompleted).
		Where("o.created_at >= ? AND o.created_at < ?", from.UTC(), to.UTC()).
		Order("o.created_at ASC, oi.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]report.SaleLine, len(rows))
	for i, row := range rows {
		lines[i] = report.SaleLine{
			OrderID:              row.OrderID,
			ProductID:            row.ProductID,
			VariantID:            row.VariantID,
			ProductName:          row.ProductName,
			SKU:                  row.SKU,
			CategoryName:         row.CategoryName,
			ColorName:            row.ColorName,
			SizeName:             row.SizeName,
			Quantity:             row.Quantity,
			LineTotal:            row.LineTotal,
			CurrentPurchasePrice: row.CurrentPurchasePrice,
			CurrentStock:         row.CurrentStock,
			SoldAt:               row.SoldAt.UTC(),
		}
	}
	return lines, nil
}

type wasteLineRow struct {
	WasteID           uuid.UUID
	ProductID         uuid.UUID
	VariantID         uuid.UUID
	ProductName       string
	SKU               string `gorm:"column:sku"`
	CategoryName      string
	ColorName         string
	SizeName          string
	Quantity          int
	UnitPurchasePrice decimal.Decimal
	WasteValue        decimal.Decimal
	Reason            string
	RecordedAt        time.Time
}

// WasteLines returns waste records recorded in [from, to)
func (r *GormReportReader) WasteLines(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]report.WasteLine, error) {
	var rows []wasteLineRow
	err := r.db.WithContext(ctx).Table("waste_records w").
		Select(`
			w.id AS waste_id,
			w.product_id,
			w.variant_id,
			COALESCE(p.name, '') AS product_name,
			COALESCE(p.sku, '') AS sku,
			COALESCE(p.category_name, '') AS category_name,
			w.color_name,
			w.size_name,
			w.quantity,
			w.unit_purchase_price,
			w.waste_value,
			w.reason,
			w.recorded_at
		`).
		Joins("LEFT JOIN products p ON p.id = w.product_id").
		Where("w.shop_id = ?", shopID).
		Where("w.recorded_at >= ? AND w.recorded_at < ?", from.UTC(), to.UTC()).
		Order("w.recorded_at ASC, w.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]report.WasteLine, len(rows))
	for i, row := range rows {
		lines[i] = report.WasteLine{
			WasteID:           row.WasteID,
			ProductID:         row.ProductID,
			VariantID:         row.VariantID,
			ProductName:       row.ProductName,
			SKU:               row.SKU,
			CategoryName:      row.CategoryName,
			ColorName:         row.ColorName,
			SizeName:          row.SizeName,
			Quantity:          row.Quantity,
			UnitPurchasePrice: row.UnitPurchasePrice,
			WasteValue:        row.WasteValue,
			Reason:            row.Reason,
			RecordedAt:        row.RecordedAt.UTC(),
		}
	}
	return lines, nil
}

// ExpenseTotal sums expenses dated in [from, to)
func (r *GormReportReader) ExpenseTotal(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return r.sumAmount(ctx, "expenses", shopID, from, to)
}

// AdjustmentTotal sums signed adjustment amounts dated in [from, to)
func (r *GormReportReader) AdjustmentTotal(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return r.sumAmount(ctx, "adjustments", shopID, from, to)
}

func (r *GormReportReader) sumAmount(ctx context.Context, table string, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result sumResult
	if err := r.db.WithContext(ctx).Table(table).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("shop_id = ?", shopID).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total.Round(moneyScale), nil
}

// Ensure GormReportReader implements report.Reader
var _ report.Reader = (*GormReportReader)(nil)
