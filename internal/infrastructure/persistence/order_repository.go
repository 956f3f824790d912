package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/trade"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForShop loads an order with its items in line order
func (r *GormOrderRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line ASC")
		}).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Create inserts an order and its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error
}

// ShopsWithOrdersSince lists the shops with at least one completed order in the last days
func (r *GormOrderRepository) ShopsWithOrdersSince(ctx context.Context, days int) ([]uuid.UUID, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	var shopIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Distinct("shop_id").
		Where("created_at >= ? AND status = ?", since, trade.OrderStatusCompleted).
		Order("shop_id").
		Pluck("shop_id", &shopIDs).Error; err != nil {
		return nil, err
	}
	return shopIDs, nil
}

// Ensure GormOrderRepository implements trade.OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
