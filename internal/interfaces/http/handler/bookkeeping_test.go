package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBookkeepingHandler_RecordExpense(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(http.MethodPost, "/api/v1/finance/expenses", map[string]any{
		"date":        "2024-03-05T00:00:00Z",
		"amount":      "150.50",
		"category":    "rent",
		"description": "March rent",
	})
	expense := decodeData[ExpenseResponse](t, w, http.StatusCreated)
	assert.Equal(t, finance.ExpenseCategoryRent, expense.Category)
	assert.True(t, expense.Amount.Equal(dec("150.5")))
	assert.True(t, expense.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, f.userID, expense.RecordedBy)

	t.Run("category defaults to other", func(t *testing.T) {
		w := f.request(http.MethodPost, "/api/v1/finance/expenses", map[string]string{"amount": "5"})
		assert.Equal(t, finance.ExpenseCategoryOther, decodeData[ExpenseResponse](t, w, http.StatusCreated).Category)
	})

	tests := []struct {
		name string
		body map[string]string
		code string
	}{
		{"zero amount", map[string]string{"amount": "0"}, dto.ErrCodeInvalidAmount},
		{"unknown category", map[string]string{"amount": "5", "category": "travel"}, dto.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(http.MethodPost, "/api/v1/finance/expenses", tt.body)
			assert.Equal(t, tt.code, errorCode(t, w, http.StatusBadRequest))
		})
	}
}

func TestBookkeepingHandler_RecordAdjustment(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"gain", map[string]string{"amount": "25", "type": "gain"}, http.StatusCreated, ""},
		{"loss", map[string]string{"amount": "-10", "type": "LOSS"}, http.StatusCreated, ""},
		{"signed correction", map[string]string{"amount": "-3", "type": "correction"}, http.StatusCreated, ""},
		{"positive loss", map[string]string{"amount": "10", "type": "loss"}, http.StatusBadRequest, dto.ErrCodeInvalidAmount},
		{"unknown type", map[string]string{"amount": "10", "type": "bonus"}, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"missing type", map[string]string{"amount": "10"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(http.MethodPost, "/api/v1/finance/adjustments", tt.body)
			if tt.code == "" {
				adjustment := decodeData[AdjustmentResponse](t, w, tt.status)
				assert.True(t, adjustment.Amount.Equal(dec(tt.body["amount"])))
				return
			}
			assert.Equal(t, tt.code, errorCode(t, w, tt.status))
		})
	}
}
