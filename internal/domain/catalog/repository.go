package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*Product, error)

	// FindByIDs loads several products of one shop, keyed by id
	FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Product, error)

	Save(ctx context.Context, product *Product) error

	// UpdateStockQuantity writes the cached product stock
	UpdateStockQuantity(ctx context.Context, productID uuid.UUID, qty int) error
}

// VariantRepository defines the interface for variant persistence.
// Stock changes go through DecrementStock/IncrementStock so concurrent writers
// never read-modify-write the stock column.
type VariantRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*ProductVariant, error)

	// FindByIDs loads several variants of one shop, keyed by id
	FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*ProductVariant, error)

	FindByProduct(ctx context.Context, shopID, productID uuid.UUID) ([]ProductVariant, error)

	Save(ctx context.Context, variant *ProductVariant) error

	Delete(ctx context.Context, shopID, id uuid.UUID) error

	// DecrementStock subtracts qty only if at least qty is in stock.
	// It returns shared.ErrInsufficientStock when no row was updated.
	DecrementStock(ctx context.Context, shopID, id uuid.UUID, qty int) error

	// IncrementStock adds qty back to stock
	IncrementStock(ctx context.Context, shopID, id uuid.UUID, qty int) error

	// SumStockByProduct aggregates variant stock for a product
	SumStockByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}
