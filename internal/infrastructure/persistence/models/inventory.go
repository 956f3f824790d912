package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// WasteRecordModel is the persistence model for WasteRecord.
type WasteRecordModel struct {
	ShopAggregateModel
	VariantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ColorName         string          `gorm:"type:varchar(100)"`
	SizeName          string          `gorm:"type:varchar(50)"`
	Quantity          int             `gorm:"not null"`
	UnitPurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WasteValue        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason            string          `gorm:"type:varchar(500)"`
	RecordedBy        uuid.UUID       `gorm:"type:uuid"`
	RecordedAt        time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WasteRecordModel) TableName() string {
	return "waste_records"
}

// ToDomain converts the persistence model to a domain WasteRecord.
func (m *WasteRecordModel) ToDomain() *inventory.WasteRecord {
	return &inventory.WasteRecord{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		VariantID:         m.VariantID,
		ProductID:         m.ProductID,
		ColorName:         m.ColorName,
		SizeName:          m.SizeName,
		Quantity:          m.Quantity,
		UnitPurchasePrice: m.UnitPurchasePrice,
		WasteValue:        m.WasteValue,
		Reason:            m.Reason,
		RecordedBy:        m.RecordedBy,
		RecordedAt:        m.RecordedAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain WasteRecord.
func (m *WasteRecordModel) FromDomain(w *inventory.WasteRecord) {
	m.FromDomainShopAggregateRoot(w.ShopAggregateRoot)
	m.VariantID = w.VariantID
	m.ProductID = w.ProductID
	m.ColorName = w.ColorName
	m.SizeName = w.SizeName
	m.Quantity = w.Quantity
	m.UnitPurchasePrice = w.UnitPurchasePrice
	m.WasteValue = w.WasteValue
	m.Reason = w.Reason
	m.RecordedBy = w.RecordedBy
	m.RecordedAt = w.RecordedAt.UTC()
}

// WasteRecordModelFromDomain creates a new persistence model from a domain WasteRecord.
func WasteRecordModelFromDomain(w *inventory.WasteRecord) *WasteRecordModel {
	m := &WasteRecordModel{}
	m.FromDomain(w)
	return m
}
