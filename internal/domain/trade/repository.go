package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByIDForShop loads an order with its items
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*Order, error)

	// Create inserts an order and its items
	Create(ctx context.Context, order *Order) error

	// ShopsWithOrdersSince lists shops that sold anything since the given number of days
	ShopsWithOrdersSince(ctx context.Context, days int) ([]uuid.UUID, error)
}

// OrderNumberGenerator produces unique human-readable order numbers
type OrderNumberGenerator interface {
	Next() string
}
