package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtToPay is money the shop owes a supplier.
type DebtToPay struct {
	shared.ShopAggregateRoot
	DebtBalance
	SupplierID  uuid.UUID
	ProductID   *uuid.UUID
	DueDate     *time.Time
	Description string
}

// NewDebtToPay creates a supplier debt
func NewDebtToPay(shopID, supplierID uuid.UUID, amount, paid decimal.Decimal) (*DebtToPay, error) {
	if supplierID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Supplier ID cannot be empty")
	}
	root := shared.NewShopAggregateRoot(shopID)
	balance, err := newDebtBalance(amount, paid, root.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &DebtToPay{
		ShopAggregateRoot: root,
		DebtBalance:       balance,
		SupplierID:        supplierID,
	}, nil
}

// ApplyPayment applies an allocated amount to the debt
func (d *DebtToPay) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if err := d.applyPayment(amount, at); err != nil {
		return err
	}
	d.IncrementVersion()
	return nil
}
