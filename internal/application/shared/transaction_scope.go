package shared

import (
	"context"

	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error

	// Repositories returns repositories bound to the plain connection, for reads
	Repositories() TransactionalRepositories
}

// TransactionalRepositories provides access to every repository within one transaction.
//
// Ledger writes must go through the same instance that locked the party row,
// otherwise the lock does not protect them.
type TransactionalRepositories interface {
	Customers() partner.CustomerRepository
	Suppliers() partner.SupplierRepository
	CustomerDebts() finance.CustomerDebtRepository
	SupplierDebts() finance.SupplierDebtRepository
	Expenses() finance.ExpenseRepository
	Adjustments() finance.AdjustmentRepository
	Products() catalog.ProductRepository
	Variants() catalog.VariantRepository
	Orders() trade.OrderRepository
	Waste() inventory.WasteRepository
}
