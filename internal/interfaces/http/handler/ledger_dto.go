package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// ContactRequest is the body for creating a customer or a supplier
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// PaymentRequest is the body for a customer or supplier payment
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"dpos"`
}

// SupplierDebtRequest is the body for recording a debt owed to a supplier
type SupplierDebtRequest struct {
	Amount      decimal.Decimal  `json:"amount" binding:"dpos"`
	Paid        *decimal.Decimal `json:"paid" binding:"omitempty,dnonneg"`
	DueDate     *time.Time       `json:"due_date"`
	ProductID   *uuid.UUID       `json:"product_id"`
	Description string           `json:"description" binding:"max=500"`
}

// DebtListQuery filters debt listings
type DebtListQuery struct {
	OpenOnly bool `form:"open_only"`
	Limit    int  `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (q DebtListQuery) filter() finance.DebtFilter {
	return finance.DebtFilter{OpenOnly: q.OpenOnly, Limit: q.Limit}
}

// CustomerResponse is a customer with its cached balance
type CustomerResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		TotalDebt: c.TotalDebt,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// SupplierResponse is a supplier
type SupplierResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Phone:     s.Phone,
		Email:     s.Email,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
	}
}

// DebtResponse is one customer or supplier debt with its payment history
type DebtResponse struct {
	ID              uuid.UUID               `json:"id"`
	PartyID         uuid.UUID               `json:"party_id"`
	OrderID         *uuid.UUID              `json:"order_id,omitempty"`
	ProductID       *uuid.UUID              `json:"product_id,omitempty"`
	Amount          decimal.Decimal         `json:"amount"`
	PaidAmount      decimal.Decimal         `json:"paid_amount"`
	RemainingAmount decimal.Decimal         `json:"remaining_amount"`
	Status          finance.DebtStatus      `json:"status"`
	DueDate         *time.Time              `json:"due_date,omitempty"`
	Description     string                  `json:"description,omitempty"`
	Payments        []finance.PaymentRecord `json:"payments"`
	CreatedAt       time.Time               `json:"created_at"`
}

func debtResponse(id, partyID uuid.UUID, b finance.DebtBalance, due *time.Time, desc string, createdAt time.Time) DebtResponse {
	payments := b.Payments
	if payments == nil {
		payments = []finance.PaymentRecord{}
	}
	return DebtResponse{
		ID:              id,
		PartyID:         partyID,
		Amount:          b.Amount,
		PaidAmount:      b.PaidAmount,
		RemainingAmount: b.RemainingAmount,
		Status:          b.Status,
		DueDate:         due,
		Description:     desc,
		Payments:        payments,
		CreatedAt:       createdAt,
	}
}

func toCustomerDebtResponse(d *finance.DebtToBePaid) DebtResponse {
	resp := debtResponse(d.ID, d.CustomerID, d.DebtBalance, d.DueDate, d.Description, d.CreatedAt)
	resp.OrderID = d.OrderID
	return resp
}

func toSupplierDebtResponse(d *finance.DebtToPay) DebtResponse {
	resp := debtResponse(d.ID, d.SupplierID, d.DebtBalance, d.DueDate, d.Description, d.CreatedAt)
	resp.ProductID = d.ProductID
	return resp
}

// BalanceResponse is a party balance
type BalanceResponse struct {
	PartyID uuid.UUID       `json:"party_id"`
	Balance decimal.Decimal `json:"balance"`
}
