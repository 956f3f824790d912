package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedVariant(t *testing.T, db *gorm.DB, shopID uuid.UUID, stock int) (*catalog.Product, *catalog.ProductVariant) {
	t.Helper()
	ctx := context.Background()

	product, err := catalog.NewProduct(shopID, "Oxford Shirt", "ox-1")
	require.NoError(t, err)
	product.SetClassification("Shirts", "Acme")
	require.NoError(t, NewGormProductRepository(db).Save(ctx, product))

	variant, err := catalog.NewProductVariant(product, "Blue", "M", catalog.VariantPricing{
		PurchasePrice:   dec("4"),
		SingleSalePrice: dec("10"),
		PackSalePrice:   dec("54"),
		IsPack:          true,
		UnitsPerPack:    6,
	}, stock)
	require.NoError(t, err)
	require.NoError(t, NewGormVariantRepository(db).Save(ctx, variant))
	return product, variant
}

// ==================== Conditional decrement ====================

func TestGormVariantRepository_DecrementStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()
	shopID := uuid.New()
	_, variant := seedVariant(t, db, shopID, 5)

	t.Run("decrements when enough stock", func(t *testing.T) {
		require.NoError(t, repo.DecrementStock(ctx, shopID, variant.ID, 3))

		found, err := repo.FindByIDForShop(ctx, shopID, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.StockQuantity)
	})

	t.Run("rejects when stock is short and leaves it unchanged", func(t *testing.T) {
		err := repo.DecrementStock(ctx, shopID, variant.ID, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		found, err := repo.FindByIDForShop(ctx, shopID, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.StockQuantity)
	})

	t.Run("unknown or foreign variant is not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.DecrementStock(ctx, shopID, uuid.New(), 1), shared.ErrNotFound)
		assert.ErrorIs(t, repo.DecrementStock(ctx, uuid.New(), variant.ID, 1), shared.ErrNotFound)
	})

	t.Run("non-positive quantity is invalid", func(t *testing.T) {
		assert.ErrorIs(t, repo.DecrementStock(ctx, shopID, variant.ID, 0), shared.ErrInvalidInput)
	})

	t.Run("increment returns stock", func(t *testing.T) {
		require.NoError(t, repo.IncrementStock(ctx, shopID, variant.ID, 4))
		found, err := repo.FindByIDForShop(ctx, shopID, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, found.StockQuantity)
	})
}

func TestGormVariantRepository_DecrementStock_Concurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormVariantRepository(db)
	shopID := uuid.New()
	_, variant := seedVariant(t, db, shopID, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.DecrementStock(context.Background(), shopID, variant.ID, 3)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)

	found, err := repo.FindByIDForShop(context.Background(), shopID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.StockQuantity)
}

func TestGormVariantRepository_DecrementStock_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormVariantRepository(db.DB)

	shopID := uuid.New()
	variantID := uuid.New()

	t.Run("single guarded update", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "product_variants" SET "stock_quantity"=stock_quantity - \$1,"updated_at"=\$2 WHERE .*stock_quantity >= \$5`).
			WithArgs(3, sqlmock.AnyArg(), variantID, shopID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DecrementStock(context.Background(), shopID, variantID, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected on an existing variant means insufficient stock", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "product_variants" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "product_variants" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.DecrementStock(context.Background(), shopID, variantID, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByIDForUpdate_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormCustomerRepository(db.DB)

	shopID := uuid.New()
	customerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "customers" WHERE .*shop_id = .* LIMIT \$3 FOR UPDATE`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "name", "total_debt"}).
			AddRow(customerID.String(), shopID.String(), "Ana", "0"))

	customer, err := repo.FindByIDForUpdate(context.Background(), shopID, customerID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", customer.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==================== Save and aggregation ====================

func TestGormVariantRepository_SaveKeepsStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()
	shopID := uuid.New()
	_, variant := seedVariant(t, db, shopID, 10)

	require.NoError(t, repo.DecrementStock(ctx, shopID, variant.ID, 4))

	// variant still holds the stale stock of 10
	require.NoError(t, variant.UpdatePricing(catalog.VariantPricing{
		PurchasePrice:   dec("5"),
		SingleSalePrice: dec("11"),
	}))
	require.NoError(t, repo.Save(ctx, variant))

	found, err := repo.FindByIDForShop(ctx, shopID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, found.StockQuantity)
	assert.True(t, found.PurchasePrice.Equal(dec("5")))
	assert.False(t, found.IsPack)
	assert.Equal(t, 1, found.UnitsPerPack)
}

func TestGormVariantRepository_SumAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormVariantRepository(db)
	products := NewGormProductRepository(db)
	ctx := context.Background()
	shopID := uuid.New()
	product, first := seedVariant(t, db, shopID, 5)

	second, err := catalog.NewProductVariant(product, "Red", "L", catalog.VariantPricing{SingleSalePrice: dec("10")}, 7)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	total, err := repo.SumStockByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	require.NoError(t, products.UpdateStockQuantity(ctx, product.ID, total))
	p, err := products.FindByIDForShop(ctx, shopID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, p.StockQuantity)

	listed, err := repo.FindByProduct(ctx, shopID, product.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, repo.Delete(ctx, shopID, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, shopID, first.ID), shared.ErrNotFound)

	total, err = repo.SumStockByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	byID, err := repo.FindByIDs(ctx, shopID, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Contains(t, byID, second.ID)
}
