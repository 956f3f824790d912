package shared

import (
	"context"
	"fmt"

	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// RefreshCustomerBalance sums the customer's open debts and writes the cached
// balance. repos must be the transaction that holds the customer row lock.
func RefreshCustomerBalance(ctx context.Context, repos TransactionalRepositories, customer *partner.Customer) (decimal.Decimal, error) {
	outstanding, err := repos.CustomerDebts().SumOutstanding(ctx, customer.ShopID, customer.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum customer debts: %w", err)
	}
	customer.RefreshTotalDebt(outstanding)
	if err := repos.Customers().Save(ctx, customer); err != nil {
		return decimal.Zero, fmt.Errorf("failed to save customer balance: %w", err)
	}
	return customer.TotalDebt, nil
}
