package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every money column stores
// (DECIMAL(18,4)).
const MoneyScale = 4

var moneyLimit = decimal.New(1, 18-MoneyScale)

// CheckMoney reports ErrInvalidAmount for an amount the money columns cannot
// hold exactly: more than MoneyScale decimal places, or too many integer digits.
func CheckMoney(field string, amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if !a.Equal(a.Truncate(MoneyScale)) {
			return ErrInvalidAmount.WithMessage(fmt.Sprintf("%s allows at most %d decimal places", field, MoneyScale))
		}
		if a.Abs().GreaterThanOrEqual(moneyLimit) {
			return ErrInvalidAmount.WithMessage(fmt.Sprintf("%s is too large", field))
		}
	}
	return nil
}
