package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository persists customers. Every lookup is scoped to a shop;
// a customer of another shop is reported as not found.
type CustomerRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*Customer, error)
	// FindByIDForUpdate holds a row lock until the surrounding transaction
	// ends. Receipts and sales for one customer serialize on it.
	FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// SupplierRepository is the payable-side counterpart of CustomerRepository.
type SupplierRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*Supplier, error)
	FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*Supplier, error)
	Save(ctx context.Context, supplier *Supplier) error
}
