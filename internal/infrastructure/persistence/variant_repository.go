package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVariantRepository implements catalog.VariantRepository using GORM.
// Stock is changed only through conditional updates so that it can never go negative,
// whatever the isolation level.
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByIDForShop finds a variant by ID within a shop
func (r *GormVariantRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the variants of one shop with the given ids
func (r *GormVariantRepository) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*catalog.ProductVariant, error) {
	result := make(map[uuid.UUID]*catalog.ProductVariant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindByProduct lists the variants of a product
func (r *GormVariantRepository) FindByProduct(ctx context.Context, shopID, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	variants := make([]catalog.ProductVariant, len(rows))
	for i := range rows {
		variants[i] = *rows[i].ToDomain()
	}
	return variants, nil
}

// Save inserts a new variant or updates the descriptive and price columns of an
// existing one. The stock column of an existing row is left untouched.
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	model := models.ProductVariantModelFromDomain(variant)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("stock_quantity", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// Delete removes a variant of a shop
func (r *GormVariantRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		Delete(&models.ProductVariantModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty in a single conditional UPDATE. When no row
// matches, the variant either does not exist or holds less than qty.
func (r *GormVariantRepository) DecrementStock(ctx context.Context, shopID, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ? AND shop_id = ? AND stock_quantity >= ?", id, shopID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	return r.missingOrShort(ctx, shopID, id)
}

func (r *GormVariantRepository) missingOrShort(ctx context.Context, shopID, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound.WithMessage("Variant not found")
	}
	return shared.ErrInsufficientStock
}

// IncrementStock adds qty back to stock
func (r *GormVariantRepository) IncrementStock(ctx context.Context, shopID, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Variant not found")
	}
	return nil
}

// SumStockByProduct aggregates variant stock for a product
func (r *GormVariantRepository) SumStockByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Where("product_id = ?", productID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// Ensure GormVariantRepository implements catalog.VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
