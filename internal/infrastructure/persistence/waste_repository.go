package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWasteRepository implements inventory.WasteRepository using GORM
type GormWasteRepository struct {
	db *gorm.DB
}

// NewGormWasteRepository creates a new GormWasteRepository
func NewGormWasteRepository(db *gorm.DB) *GormWasteRepository {
	return &GormWasteRepository{db: db}
}

// FindByIDForShop finds a waste record by ID within a shop
func (r *GormWasteRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*inventory.WasteRecord, error) {
	var model models.WasteRecordModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a waste record and locks it for the rest of the transaction
func (r *GormWasteRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*inventory.WasteRecord, error) {
	var model models.WasteRecordModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a waste record
func (r *GormWasteRepository) Save(ctx context.Context, record *inventory.WasteRecord) error {
	return r.db.WithContext(ctx).Save(models.WasteRecordModelFromDomain(record)).Error
}

// Ensure GormWasteRepository implements inventory.WasteRepository
var _ inventory.WasteRepository = (*GormWasteRepository)(nil)
