package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// debtOrder is the allocation order: oldest first, ties broken by id
const debtOrder = "created_at ASC, id ASC"

// moneyScale matches the decimal(18,4) money columns. Drivers that aggregate
// through float64 (sqlite) are rounded back to it.
const moneyScale = 4

type sumResult struct {
	Total decimal.Decimal
}

func applyDebtFilter(query *gorm.DB, filter finance.DebtFilter) *gorm.DB {
	if filter.OpenOnly {
		query = query.Where("status <> ?", finance.DebtStatusPaid)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query.Order(debtOrder)
}

// GormCustomerDebtRepository implements finance.CustomerDebtRepository using GORM
type GormCustomerDebtRepository struct {
	db *gorm.DB
}

// NewGormCustomerDebtRepository creates a new GormCustomerDebtRepository
func NewGormCustomerDebtRepository(db *gorm.DB) *GormCustomerDebtRepository {
	return &GormCustomerDebtRepository{db: db}
}

// FindByIDForShop finds a debt by ID within a shop
func (r *GormCustomerDebtRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*finance.DebtToBePaid, error) {
	var model models.CustomerDebtModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindOpenByCustomer returns the customer's unsettled debts in allocation order
func (r *GormCustomerDebtRepository) FindOpenByCustomer(ctx context.Context, shopID, customerID uuid.UUID) ([]finance.DebtToBePaid, error) {
	return r.FindByCustomer(ctx, shopID, customerID, finance.DebtFilter{OpenOnly: true})
}

// FindByCustomer lists a customer's debts, oldest first
func (r *GormCustomerDebtRepository) FindByCustomer(ctx context.Context, shopID, customerID uuid.UUID, filter finance.DebtFilter) ([]finance.DebtToBePaid, error) {
	var debtModels []models.CustomerDebtModel
	query := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("customer_id = ?", customerID)
	if err := applyDebtFilter(query, filter).Find(&debtModels).Error; err != nil {
		return nil, err
	}

	debts := make([]finance.DebtToBePaid, len(debtModels))
	for i := range debtModels {
		debts[i] = *debtModels[i].ToDomain()
	}
	return debts, nil
}

// SumOutstanding returns the sum of remaining amounts over unsettled debts
func (r *GormCustomerDebtRepository) SumOutstanding(ctx context.Context, shopID, customerID uuid.UUID) (decimal.Decimal, error) {
	var result sumResult
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerDebtModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS total").
		Scopes(ShopScope(shopID)).
		Where("customer_id = ? AND status <> ?", customerID, finance.DebtStatusPaid).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total.Round(moneyScale), nil
}

// Save creates or updates a debt
func (r *GormCustomerDebtRepository) Save(ctx context.Context, debt *finance.DebtToBePaid) error {
	model := models.CustomerDebtModelFromDomain(debt)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormCustomerDebtRepository implements finance.CustomerDebtRepository
var _ finance.CustomerDebtRepository = (*GormCustomerDebtRepository)(nil)

// GormSupplierDebtRepository implements finance.SupplierDebtRepository using GORM
type GormSupplierDebtRepository struct {
	db *gorm.DB
}

// NewGormSupplierDebtRepository creates a new GormSupplierDebtRepository
func NewGormSupplierDebtRepository(db *gorm.DB) *GormSupplierDebtRepository {
	return &GormSupplierDebtRepository{db: db}
}

// FindByIDForShop finds a debt by ID within a shop
func (r *GormSupplierDebtRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*finance.DebtToPay, error) {
	var model models.SupplierDebtModel
	if err := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindOpenBySupplier returns the supplier's unsettled debts in allocation order
func (r *GormSupplierDebtRepository) FindOpenBySupplier(ctx context.Context, shopID, supplierID uuid.UUID) ([]finance.DebtToPay, error) {
	return r.FindBySupplier(ctx, shopID, supplierID, finance.DebtFilter{OpenOnly: true})
}

// FindBySupplier lists a supplier's debts, oldest first
func (r *GormSupplierDebtRepository) FindBySupplier(ctx context.Context, shopID, supplierID uuid.UUID, filter finance.DebtFilter) ([]finance.DebtToPay, error) {
	var debtModels []models.SupplierDebtModel
	query := r.db.WithContext(ctx).
		Scopes(ShopScope(shopID)).
		Where("supplier_id = ?", supplierID)
	if err := applyDebtFilter(query, filter).Find(&debtModels).Error; err != nil {
		return nil, err
	}

	debts := make([]finance.DebtToPay, len(debtModels))
	for i := range debtModels {
		debts[i] = *debtModels[i].ToDomain()
	}
	return debts, nil
}

// SumOutstanding returns the sum of remaining amounts over unsettled debts
func (r *GormSupplierDebtRepository) SumOutstanding(ctx context.Context, shopID, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result sumResult
	if err := r.db.WithContext(ctx).
		Model(&models.SupplierDebtModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS total").
		Scopes(ShopScope(shopID)).
		Where("supplier_id = ? AND status <> ?", supplierID, finance.DebtStatusPaid).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total.Round(moneyScale), nil
}

// Save creates or updates a debt
func (r *GormSupplierDebtRepository) Save(ctx context.Context, debt *finance.DebtToPay) error {
	model := models.SupplierDebtModelFromDomain(debt)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormSupplierDebtRepository implements finance.SupplierDebtRepository
var _ finance.SupplierDebtRepository = (*GormSupplierDebtRepository)(nil)
