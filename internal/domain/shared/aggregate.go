package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps. Timestamps are UTC so that day
// bucketing in reports does not depend on the host zone.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh id
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// BaseAggregateRoot adds the version that changes with every state transition
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// IncrementVersion records a state transition
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// ShopScoped is implemented by every record owned by a single shop (tenant).
type ShopScoped interface {
	GetShopID() uuid.UUID
}

// ShopAggregateRoot is an aggregate owned by one shop
type ShopAggregateRoot struct {
	BaseAggregateRoot
	ShopID uuid.UUID
}

// NewShopAggregateRoot creates version 1 of an aggregate for shopID
func NewShopAggregateRoot(shopID uuid.UUID) ShopAggregateRoot {
	return ShopAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1},
		ShopID:            shopID,
	}
}

// GetShopID returns the owning shop
func (s *ShopAggregateRoot) GetShopID() uuid.UUID {
	return s.ShopID
}

// EnsureShop returns ErrNotFound when the record belongs to another shop.
// Foreign records are reported as missing so that ids of other tenants do not leak.
func EnsureShop(record ShopScoped, shopID uuid.UUID) error {
	if record == nil || record.GetShopID() != shopID {
		return ErrNotFound
	}
	return nil
}
