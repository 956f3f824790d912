package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// RecordWasteRequest is the body for writing off damaged or lost stock
type RecordWasteRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// WasteResponse is a waste record valued at the purchase price of its time
type WasteResponse struct {
	ID                uuid.UUID       `json:"id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Color             string          `json:"color,omitempty"`
	Size              string          `json:"size,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
	WasteValue        decimal.Decimal `json:"waste_value"`
	Reason            string          `json:"reason,omitempty"`
	RecordedBy        uuid.UUID       `json:"recorded_by"`
	RecordedAt        time.Time       `json:"recorded_at"`
}

func toWasteResponse(w *inventory.WasteRecord) WasteResponse {
	return WasteResponse{
		ID:                w.ID,
		VariantID:         w.VariantID,
		ProductID:         w.ProductID,
		Color:             w.ColorName,
		Size:              w.SizeName,
		Quantity:          w.Quantity,
		UnitPurchasePrice: w.UnitPurchasePrice,
		WasteValue:        w.WasteValue,
		Reason:            w.Reason,
		RecordedBy:        w.RecordedBy,
		RecordedAt:        w.RecordedAt,
	}
}
