package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ExpenseRequest is an operating expense. An omitted date means now and an
// omitted category means OTHER.
type ExpenseRequest struct {
	Date        *time.Time      `json:"date"`
	Amount      decimal.Decimal `json:"amount" binding:"dpos"`
	Category    string          `json:"category" binding:"max=20"`
	Description string          `json:"description" binding:"max=500"`
}

// AdjustmentRequest is a signed profit adjustment. GAIN must be positive and
// LOSS negative; CORRECTION takes either sign.
type AdjustmentRequest struct {
	Date        *time.Time      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" binding:"required,max=20"`
	Description string          `json:"description" binding:"max=500"`
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ExpenseResponse is a stored expense
type ExpenseResponse struct {
	ID          uuid.UUID               `json:"id"`
	Date        time.Time               `json:"date"`
	Amount      decimal.Decimal         `json:"amount"`
	Category    finance.ExpenseCategory `json:"category"`
	Description string                  `json:"description,omitempty"`
	RecordedBy  uuid.UUID               `json:"recorded_by"`
}

func toExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		RecordedBy:  e.RecordedBy,
	}
}

// AdjustmentResponse is a stored adjustment
type AdjustmentResponse struct {
	ID          uuid.UUID              `json:"id"`
	Date        time.Time              `json:"date"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        finance.AdjustmentType `json:"type"`
	Description string                 `json:"description,omitempty"`
	RecordedBy  uuid.UUID              `json:"recorded_by"`
}

func toAdjustmentResponse(a *finance.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:          a.ID,
		Date:        a.Date,
		Amount:      a.Amount,
		Type:        a.Type,
		Description: a.Description,
		RecordedBy:  a.RecordedBy,
	}
}
