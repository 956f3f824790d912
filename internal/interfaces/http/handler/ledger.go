package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	financeapp "github.com/retailpos/backend/internal/application/finance"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

// LedgerHandler serves customers, suppliers, their debts and payments
type LedgerHandler struct {
	BaseHandler
	ledger *financeapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *financeapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ===================== Customers =====================

// CreateCustomer handles POST /ledger/customers
func (h *LedgerHandler) CreateCustomer(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.ledger.CreateCustomer(c.Request.Context(), shopID, financeapp.ContactInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// GetCustomer handles GET /ledger/customers/:id
func (h *LedgerHandler) GetCustomer(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.ledger.GetCustomer(c.Request.Context(), shopID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// ListCustomerDebts handles GET /ledger/customers/:id/debts
func (h *LedgerHandler) ListCustomerDebts(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q DebtListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	debts, err := h.ledger.ListCustomerDebts(c.Request.Context(), shopID, customerID, q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]DebtResponse, 0, len(debts))
	for i := range debts {
		items = append(items, toCustomerDebtResponse(&debts[i]))
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items))
}

// PayCustomer handles POST /ledger/customers/:id/payments. An Idempotency-Key
// header makes retries apply the payment at most once.
func (h *LedgerHandler) PayCustomer(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.ledger.ApplyCustomerPayment(c.Request.Context(), shopID, customerID, req.Amount, paymentOptions(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecalculateCustomer handles POST /ledger/customers/:id/recalculate
func (h *LedgerHandler) RecalculateCustomer(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	balance, err := h.ledger.RecalculateCustomerBalance(c.Request.Context(), shopID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{PartyID: customerID, Balance: balance})
}

// ===================== Suppliers =====================

// CreateSupplier handles POST /ledger/suppliers
func (h *LedgerHandler) CreateSupplier(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	supplier, err := h.ledger.CreateSupplier(c.Request.Context(), shopID, financeapp.ContactInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSupplierResponse(supplier))
}

// RecordSupplierDebt handles POST /ledger/suppliers/:id/debts
func (h *LedgerHandler) RecordSupplierDebt(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	supplierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req SupplierDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	in := financeapp.RecordSupplierDebtInput{
		ShopID:      shopID,
		SupplierID:  supplierID,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		ProductID:   req.ProductID,
		Description: req.Description,
	}
	if req.Paid != nil {
		in.Paid = *req.Paid
	}
	debt, err := h.ledger.RecordSupplierDebt(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSupplierDebtResponse(debt))
}

// ListSupplierDebts handles GET /ledger/suppliers/:id/debts
func (h *LedgerHandler) ListSupplierDebts(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	supplierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q DebtListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	debts, err := h.ledger.ListSupplierDebts(c.Request.Context(), shopID, supplierID, q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]DebtResponse, 0, len(debts))
	for i := range debts {
		items = append(items, toSupplierDebtResponse(&debts[i]))
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items))
}

// GetSupplierBalance handles GET /ledger/suppliers/:id/balance
func (h *LedgerHandler) GetSupplierBalance(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	supplierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	balance, err := h.ledger.GetSupplierBalance(c.Request.Context(), shopID, supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{PartyID: supplierID, Balance: balance})
}

// PaySupplier handles POST /ledger/suppliers/:id/payments
func (h *LedgerHandler) PaySupplier(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	supplierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.ledger.ApplySupplierPayment(c.Request.Context(), shopID, supplierID, req.Amount, paymentOptions(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func paymentOptions(c *gin.Context) financeapp.PaymentOptions {
	return financeapp.PaymentOptions{IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader)}
}
