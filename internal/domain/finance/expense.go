package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies an operating expense
type ExpenseCategory string

const (
	ExpenseCategoryRent      ExpenseCategory = "RENT"
	ExpenseCategoryUtility   ExpenseCategory = "UTILITY"
	ExpenseCategorySalary    ExpenseCategory = "SALARY"
	ExpenseCategoryMarketing ExpenseCategory = "MARKETING"
	ExpenseCategorySupplies  ExpenseCategory = "SUPPLIES"
	ExpenseCategoryOther     ExpenseCategory = "OTHER"
)

// IsValid checks if the category is known
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryRent, ExpenseCategoryUtility, ExpenseCategorySalary,
		ExpenseCategoryMarketing, ExpenseCategorySupplies, ExpenseCategoryOther:
		return true
	}
	return false
}

// Expense is a dated operating cost that reduces net profit
type Expense struct {
	shared.ShopAggregateRoot
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    ExpenseCategory
	RecordedBy  uuid.UUID
}

// NewExpense creates an expense. A zero date means now; an empty category means OTHER.
func NewExpense(shopID, userID uuid.UUID, date time.Time, amount decimal.Decimal, category ExpenseCategory, description string) (*Expense, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount.WithMessage("Expense amount must be positive")
	}
	if err := shared.CheckMoney("Expense amount", amount); err != nil {
		return nil, err
	}
	if category == "" {
		category = ExpenseCategoryOther
	}
	category = ExpenseCategory(strings.ToUpper(string(category)))
	if !category.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown expense category")
	}

	e := &Expense{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Date:              date,
		Amount:            amount,
		Description:       strings.TrimSpace(description),
		Category:          category,
		RecordedBy:        userID,
	}
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}
	return e, nil
}
