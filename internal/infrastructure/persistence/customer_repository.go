package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// findParty loads one customer or supplier row of a shop into dest. With lock
// set the row stays locked (SELECT ... FOR UPDATE) until the transaction ends,
// which is where concurrent payments to the same party queue up.
func findParty(ctx context.Context, db *gorm.DB, shopID, id uuid.UUID, lock bool, dest any) error {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return translate(q.Scopes(ShopScope(shopID)).Where("id = ?", id).First(dest).Error)
}

// GormCustomerRepository implements partner.CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*partner.Customer, error) {
	return r.find(ctx, shopID, id, false)
}

func (r *GormCustomerRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*partner.Customer, error) {
	return r.find(ctx, shopID, id, true)
}

func (r *GormCustomerRepository) find(ctx context.Context, shopID, id uuid.UUID, lock bool) (*partner.Customer, error) {
	var m models.CustomerModel
	if err := findParty(ctx, r.db, shopID, id, lock, &m); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save upserts the customer, including the cached TotalDebt.
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)

// GormSupplierRepository implements partner.SupplierRepository
type GormSupplierRepository struct {
	db *gorm.DB
}

func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

func (r *GormSupplierRepository) FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*partner.Supplier, error) {
	return r.find(ctx, shopID, id, false)
}

func (r *GormSupplierRepository) FindByIDForUpdate(ctx context.Context, shopID, id uuid.UUID) (*partner.Supplier, error) {
	return r.find(ctx, shopID, id, true)
}

func (r *GormSupplierRepository) find(ctx context.Context, shopID, id uuid.UUID, lock bool) (*partner.Supplier, error) {
	var m models.SupplierModel
	if err := findParty(ctx, r.db, shopID, id, lock, &m); err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return r.db.WithContext(ctx).Save(models.SupplierModelFromDomain(supplier)).Error
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
