package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/retailpos/backend/internal/application/finance"
	"github.com/retailpos/backend/internal/domain/finance"
)

// BookkeepingHandler serves operating expenses and profit adjustments
type BookkeepingHandler struct {
	BaseHandler
	bookkeeping *financeapp.BookkeepingService
}

// NewBookkeepingHandler creates a new BookkeepingHandler
func NewBookkeepingHandler(bookkeeping *financeapp.BookkeepingService) *BookkeepingHandler {
	return &BookkeepingHandler{bookkeeping: bookkeeping}
}

// RecordExpense handles POST /finance/expenses
func (h *BookkeepingHandler) RecordExpense(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	expense, err := h.bookkeeping.RecordExpense(c.Request.Context(), financeapp.RecordExpenseInput{
		ShopID:      shopID,
		UserID:      h.userID(c),
		Date:        dateOrZero(req.Date),
		Amount:      req.Amount,
		Category:    finance.ExpenseCategory(req.Category),
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toExpenseResponse(expense))
}

// RecordAdjustment handles POST /finance/adjustments
func (h *BookkeepingHandler) RecordAdjustment(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	adjustment, err := h.bookkeeping.RecordAdjustment(c.Request.Context(), financeapp.RecordAdjustmentInput{
		ShopID:      shopID,
		UserID:      h.userID(c),
		Date:        dateOrZero(req.Date),
		Amount:      req.Amount,
		Type:        finance.AdjustmentType(req.Type),
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAdjustmentResponse(adjustment))
}
