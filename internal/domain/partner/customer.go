package partner

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer buys from a shop and may carry credit.
// TotalDebt is a cache of the outstanding ledger balance and is only written
// by RefreshTotalDebt after the ledger has been re-summed.
type Customer struct {
	shared.ShopAggregateRoot
	Contact
	TotalDebt decimal.Decimal
}

// NewCustomer creates a customer for a shop
func NewCustomer(shopID uuid.UUID, contact Contact) (*Customer, error) {
	c, err := contact.normalized()
	if err != nil {
		return nil, err
	}
	return &Customer{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Contact:           c,
		TotalDebt:         decimal.Zero,
	}, nil
}

// RefreshTotalDebt overwrites the cached balance with a freshly aggregated value
func (c *Customer) RefreshTotalDebt(outstanding decimal.Decimal) {
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	c.TotalDebt = outstanding
	c.Touch()
}

// HasDebt reports whether the cached balance is positive
func (c *Customer) HasDebt() bool {
	return c.TotalDebt.IsPositive()
}
