package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtStatus represents the settlement status of a debt
type DebtStatus string

const (
	DebtStatusUnpaid  DebtStatus = "UNPAID"  // nothing paid yet
	DebtStatusPartial DebtStatus = "PARTIAL" // 0 < paid < amount
	DebtStatusPaid    DebtStatus = "PAID"    // remaining = 0
)

// IsValid checks if the status is a valid DebtStatus
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtStatusUnpaid, DebtStatusPartial, DebtStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of DebtStatus
func (s DebtStatus) String() string {
	return string(s)
}

// DeriveDebtStatus applies the status rule: PAID iff remaining is zero,
// UNPAID iff nothing has been paid, PARTIAL otherwise.
func DeriveDebtStatus(amount, paid decimal.Decimal) DebtStatus {
	remaining := amount.Sub(paid)
	switch {
	case !remaining.IsPositive():
		return DebtStatusPaid
	case paid.IsZero():
		return DebtStatusUnpaid
	default:
		return DebtStatusPartial
	}
}

// PaymentRecord is one payment applied to a debt, kept as an append-only history.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Remark    string          `json:"remark,omitempty"`
}

// DebtBalance carries the money fields shared by customer and supplier debts.
type DebtBalance struct {
	Amount          decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          DebtStatus
	Payments        []PaymentRecord
}

func newDebtBalance(amount, paid decimal.Decimal, at time.Time) (DebtBalance, error) {
	if !amount.IsPositive() {
		return DebtBalance{}, shared.ErrInvalidAmount.WithMessage("Debt amount must be positive")
	}
	if paid.IsNegative() {
		return DebtBalance{}, shared.ErrInvalidAmount.WithMessage("Paid amount cannot be negative")
	}
	if paid.GreaterThan(amount) {
		return DebtBalance{}, shared.ErrInvalidAmount.WithMessage("Paid amount cannot exceed debt amount")
	}
	if err := shared.CheckMoney("Debt amount", amount, paid); err != nil {
		return DebtBalance{}, err
	}

	b := DebtBalance{
		Amount:          amount,
		PaidAmount:      paid,
		RemainingAmount: amount.Sub(paid),
		Status:          DeriveDebtStatus(amount, paid),
		Payments:        []PaymentRecord{},
	}
	if paid.IsPositive() {
		b.Payments = append(b.Payments, PaymentRecord{
			ID:        uuid.New(),
			Amount:    paid,
			AppliedAt: at,
			Remark:    "initial payment",
		})
	}
	return b, nil
}

// IsSettled returns true once nothing remains to be paid
func (b *DebtBalance) IsSettled() bool {
	return b.Status == DebtStatusPaid
}

// applyPayment adds amount to the paid side. An amount above the remaining
// balance is a consistency violation: allocation must never drive a debt negative.
func (b *DebtBalance) applyPayment(amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if b.IsSettled() {
		return shared.ErrInvalidState.WithMessage("Cannot apply payment to a settled debt")
	}
	if amount.GreaterThan(b.RemainingAmount) {
		return shared.ErrConsistencyViolation.WithMessage(fmt.Sprintf(
			"payment %s exceeds remaining amount %s", amount.String(), b.RemainingAmount.String()))
	}

	b.PaidAmount = b.PaidAmount.Add(amount)
	b.RemainingAmount = b.Amount.Sub(b.PaidAmount)
	b.Status = DeriveDebtStatus(b.Amount, b.PaidAmount)
	b.Payments = append(b.Payments, PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount,
		AppliedAt: at,
	})
	return b.CheckConsistency()
}

// CheckConsistency verifies paid + remaining = amount, remaining >= 0 and the status rule.
func (b *DebtBalance) CheckConsistency() error {
	if b.RemainingAmount.IsNegative() {
		return shared.ErrConsistencyViolation.WithMessage("remaining amount is negative")
	}
	if !b.PaidAmount.Add(b.RemainingAmount).Equal(b.Amount) {
		return shared.ErrConsistencyViolation.WithMessage(fmt.Sprintf(
			"paid %s + remaining %s does not equal amount %s",
			b.PaidAmount.String(), b.RemainingAmount.String(), b.Amount.String()))
	}
	if b.Status != DeriveDebtStatus(b.Amount, b.PaidAmount) {
		return shared.ErrConsistencyViolation.WithMessage("debt status does not match balances")
	}
	return nil
}
