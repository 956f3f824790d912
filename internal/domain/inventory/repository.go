package inventory

import (
	"context"

	"github.com/google/uuid"
)

// WasteRepository defines the interface for waste record persistence
type WasteRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*WasteRecord, error)

	// FindByIDForUpdate locks the record so concurrent corrections serialize
	FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*WasteRecord, error)

	Save(ctx context.Context, record *WasteRecord) error
}
