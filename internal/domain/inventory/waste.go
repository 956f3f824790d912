package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WasteRecord is stock written off as lost or damaged. Names and the unit cost
// are snapshots of the variant at recording time.
type WasteRecord struct {
	shared.ShopAggregateRoot
	VariantID         uuid.UUID
	ProductID         uuid.UUID
	ColorName         string
	SizeName          string
	Quantity          int
	UnitPurchasePrice decimal.Decimal
	WasteValue        decimal.Decimal
	Reason            string
	RecordedBy        uuid.UUID
	RecordedAt        time.Time
}

// NewWasteRecord snapshots variant and values qty units at its purchase price.
// Stock availability is enforced by the conditional decrement, not here.
func NewWasteRecord(variant *catalog.ProductVariant, userID uuid.UUID, qty int, reason string) (*WasteRecord, error) {
	if variant == nil {
		return nil, shared.ErrNotFound.WithMessage("Variant not found")
	}
	if qty <= 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Waste quantity must be positive")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, shared.ErrInvalidInput.WithMessage("Reason cannot exceed 500 characters")
	}

	w := &WasteRecord{
		ShopAggregateRoot: shared.NewShopAggregateRoot(variant.ShopID),
		VariantID:         variant.ID,
		ProductID:         variant.ProductID,
		ColorName:         variant.ColorName,
		SizeName:          variant.SizeName,
		Quantity:          qty,
		UnitPurchasePrice: variant.PurchasePrice,
		Reason:            reason,
		RecordedBy:        userID,
	}
	w.RecordedAt = w.CreatedAt
	w.revalue()
	return w, nil
}

func (w *WasteRecord) revalue() {
	w.WasteValue = w.UnitPurchasePrice.Mul(decimal.NewFromInt(int64(w.Quantity)))
}

// CorrectQuantity changes the recorded quantity and returns the stock delta to
// apply: positive means more stock must be removed, negative means stock is returned.
func (w *WasteRecord) CorrectQuantity(newQty int) (int, error) {
	if newQty <= 0 {
		return 0, shared.ErrInvalidInput.WithMessage("Waste quantity must be positive")
	}
	delta := newQty - w.Quantity
	if delta == 0 {
		return 0, nil
	}
	w.Quantity = newQty
	w.revalue()
	w.IncrementVersion()
	return delta, nil
}
