package partner

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Supplier sells stock to a shop. The amount owed is always derived from
// the supplier debt ledger; no balance is cached on the supplier itself.
type Supplier struct {
	shared.ShopAggregateRoot
	Contact
}

// NewSupplier creates a supplier for a shop
func NewSupplier(shopID uuid.UUID, contact Contact) (*Supplier, error) {
	c, err := contact.normalized()
	if err != nil {
		return nil, err
	}
	return &Supplier{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Contact:           c,
	}, nil
}
