package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(expense)).Error
}

// FindInRange lists expenses dated in [from, to), oldest first
func (r *GormExpenseRepository) FindInRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]finance.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	expenses := make([]finance.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return expenses, nil
}

// GormAdjustmentRepository implements finance.AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// Save creates or updates an adjustment
func (r *GormAdjustmentRepository) Save(ctx context.Context, adjustment *finance.Adjustment) error {
	return r.db.WithContext(ctx).Save(models.AdjustmentModelFromDomain(adjustment)).Error
}

// FindInRange lists adjustments dated in [from, to), oldest first
func (r *GormAdjustmentRepository) FindInRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]finance.Adjustment, error) {
	var rows []models.AdjustmentModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	adjustments := make([]finance.Adjustment, len(rows))
	for i := range rows {
		adjustments[i] = *rows[i].ToDomain()
	}
	return adjustments, nil
}

var (
	_ finance.ExpenseRepository    = (*GormExpenseRepository)(nil)
	_ finance.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
)
