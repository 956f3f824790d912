package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtToBePaid is money a customer owes the shop, usually the unpaid part of an order.
type DebtToBePaid struct {
	shared.ShopAggregateRoot
	DebtBalance
	CustomerID  uuid.UUID
	OrderID     *uuid.UUID
	DueDate     *time.Time
	Description string
}

// NewDebtToBePaid creates a customer debt of amount with paid already settled.
func NewDebtToBePaid(shopID, customerID uuid.UUID, amount, paid decimal.Decimal) (*DebtToBePaid, error) {
	if customerID == uuid.Nil {
		return nil, shared.ErrInvalidCustomer
	}
	root := shared.NewShopAggregateRoot(shopID)
	balance, err := newDebtBalance(amount, paid, root.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &DebtToBePaid{
		ShopAggregateRoot: root,
		DebtBalance:       balance,
		CustomerID:        customerID,
	}, nil
}

// LinkOrder records the order that produced this debt
func (d *DebtToBePaid) LinkOrder(orderID uuid.UUID) {
	d.OrderID = &orderID
}

// ApplyPayment applies an allocated amount to the debt
func (d *DebtToBePaid) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if err := d.applyPayment(amount, at); err != nil {
		return err
	}
	d.IncrementVersion()
	return nil
}
