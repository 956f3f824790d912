package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdjustmentType describes the nature of a manual profit adjustment
type AdjustmentType string

const (
	AdjustmentTypeGain       AdjustmentType = "GAIN"
	AdjustmentTypeLoss       AdjustmentType = "LOSS"
	AdjustmentTypeCorrection AdjustmentType = "CORRECTION"
)

// IsValid checks if the type is known
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentTypeGain, AdjustmentTypeLoss, AdjustmentTypeCorrection:
		return true
	}
	return false
}

// Adjustment is a signed entry added algebraically to net profit.
// GAIN amounts are >= 0, LOSS amounts are <= 0, CORRECTION may carry either sign.
type Adjustment struct {
	shared.ShopAggregateRoot
	Date        time.Time
	Amount      decimal.Decimal
	Type        AdjustmentType
	Description string
	RecordedBy  uuid.UUID
}

// NewAdjustment creates an adjustment after checking the sign convention
func NewAdjustment(shopID, userID uuid.UUID, date time.Time, amount decimal.Decimal, adjType AdjustmentType, description string) (*Adjustment, error) {
	adjType = AdjustmentType(strings.ToUpper(string(adjType)))
	if !adjType.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown adjustment type")
	}
	switch {
	case adjType == AdjustmentTypeGain && amount.IsNegative():
		return nil, shared.ErrInvalidAmount.WithMessage("GAIN adjustments must not be negative")
	case adjType == AdjustmentTypeLoss && amount.IsPositive():
		return nil, shared.ErrInvalidAmount.WithMessage("LOSS adjustments must not be positive")
	}
	if err := shared.CheckMoney("Adjustment amount", amount); err != nil {
		return nil, err
	}

	a := &Adjustment{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Date:              date,
		Amount:            amount,
		Type:              adjType,
		Description:       strings.TrimSpace(description),
		RecordedBy:        userID,
	}
	if a.Date.IsZero() {
		a.Date = a.CreatedAt
	}
	return a, nil
}
