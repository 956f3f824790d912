package trade

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type sequenceNumbers struct {
	n atomic.Int64
}

func (s *sequenceNumbers) Next() string {
	return fmt.Sprintf("ORD-%04d", s.n.Add(1))
}

type stubRecorder struct {
	mu       sync.Mutex
	orders   int
	rejected []string
}

func (r *stubRecorder) RecordOrderCreated(context.Context, uuid.UUID, decimal.Decimal, int) {
	r.mu.Lock()
	r.orders++
	r.mu.Unlock()
}
func (r *stubRecorder) RecordPayment(context.Context, uuid.UUID, string, decimal.Decimal, decimal.Decimal) {}
func (r *stubRecorder) RecordWaste(context.Context, uuid.UUID, decimal.Decimal) {}
func (r *stubRecorder) RecordStockRejected(_ context.Context, _ uuid.UUID, source string) {
	r.mu.Lock()
	r.rejected = append(r.rejected, source)
	r.mu.Unlock()
}
func (r *stubRecorder) RecordReport(context.Context, uuid.UUID, string, bool, time.Duration) {}

type stubInvalidator struct {
	calls atomic.Int32
}

func (s *stubInvalidator) InvalidateShop(context.Context, uuid.UUID) error {
	s.calls.Add(1)
	return nil
}

type orderFixture struct {
	scope       *persistence.GormTransactionScope
	service     *OrderService
	recorder    *stubRecorder
	invalidator *stubInvalidator
	shopID      uuid.UUID
	userID      uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db, err := persistence.NewSQLiteMemoryDatabase("orders_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &orderFixture{
		scope:       persistence.NewGormTransactionScope(db.DB),
		recorder:    &stubRecorder{},
		invalidator: &stubInvalidator{},
		shopID:      uuid.New(),
		userID:      uuid.New(),
	}
	f.service = NewOrderService(f.scope, &sequenceNumbers{},
		WithRecorder(f.recorder),
		WithReportInvalidator(f.invalidator),
	)
	return f
}

// variant seeds a product with one variant: pack of 6 at 54, single 10, purchase 4
func (f *orderFixture) variant(t *testing.T, name string, stock int) *catalog.ProductVariant {
	t.Helper()
	ctx := context.Background()
	repos := f.scope.Repositories()

	p, err := catalog.NewProduct(f.shopID, name, "")
	require.NoError(t, err)
	require.NoError(t, repos.Products().Save(ctx, p))

	v, err := catalog.NewProductVariant(p, "Blue", "M", catalog.VariantPricing{
		PurchasePrice:   dec("4"),
		SingleSalePrice: dec("10"),
		PackSalePrice:   dec("54"),
		IsPack:          true,
		UnitsPerPack:    6,
	}, stock)
	require.NoError(t, err)
	require.NoError(t, repos.Variants().Save(ctx, v))
	require.NoError(t, repos.Products().UpdateStockQuantity(ctx, p.ID, stock))
	return v
}

func (f *orderFixture) customer(t *testing.T, shopID uuid.UUID) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(shopID, partner.Contact{Name: "Budi"})
	require.NoError(t, err)
	require.NoError(t, f.scope.Repositories().Customers().Save(context.Background(), c))
	return c
}

func (f *orderFixture) stockOf(t *testing.T, v *catalog.ProductVariant) (variantStock, productStock int) {
	t.Helper()
	ctx := context.Background()
	repos := f.scope.Repositories()
	stored, err := repos.Variants().FindByIDForShop(ctx, f.shopID, v.ID)
	require.NoError(t, err)
	p, err := repos.Products().FindByIDForShop(ctx, f.shopID, v.ProductID)
	require.NoError(t, err)
	return stored.StockQuantity, p.StockQuantity
}

func TestOrderService_CreateOrder_PackPricing(t *testing.T) {
	f := newOrderFixture(t)
	v := f.variant(t, "Oxford Shirt", 20)

	order, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		ShopID:     f.shopID,
		UserID:     f.userID,
		Items:      []OrderLineInput{{VariantID: v.ID, Quantity: 8}},
		PaidAmount: dec("74"),
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD-0001", order.OrderNumber)
	assert.True(t, order.TotalPrice.Equal(dec("74")))
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Oxford Shirt", item.ProductName)
	assert.Equal(t, "Blue", item.ColorName)
	assert.Equal(t, "M", item.SizeName)
	assert.True(t, item.UnitPrice.Equal(dec("9.25")))
	assert.Nil(t, order.DebtID)

	variantStock, productStock := f.stockOf(t, v)
	assert.Equal(t, 12, variantStock)
	assert.Equal(t, 12, productStock)

	stored, err := f.service.GetOrder(context.Background(), f.shopID, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalPrice.Equal(dec("74")))
	assert.Len(t, stored.Items, 1)

	assert.Equal(t, 1, f.recorder.orders)
	assert.Equal(t, int32(1), f.invalidator.calls.Load())
}

func TestOrderService_CreateOrder_OpensCustomerDebt(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	v := f.variant(t, "Mug", 10)
	customer := f.customer(t, f.shopID)

	order, err := f.service.CreateOrder(ctx, CreateOrderInput{
		ShopID:     f.shopID,
		UserID:     f.userID,
		CustomerID: &customer.ID,
		Items:      []OrderLineInput{{VariantID: v.ID, Quantity: 3}},
		PaidAmount: dec("12"),
	})
	require.NoError(t, err)
	require.NotNil(t, order.DebtID)

	repos := f.scope.Repositories()
	debt, err := repos.CustomerDebts().FindByIDForShop(ctx, f.shopID, *order.DebtID)
	require.NoError(t, err)
	assert.True(t, debt.Amount.Equal(dec("30")))
	assert.True(t, debt.PaidAmount.Equal(dec("12")))
	assert.True(t, debt.RemainingAmount.Equal(dec("18")))
	assert.Equal(t, finance.DebtStatusPartial, debt.Status)
	require.NotNil(t, debt.OrderID)
	assert.Equal(t, order.ID, *debt.OrderID)

	stored, err := repos.Customers().FindByIDForShop(ctx, f.shopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalDebt.Equal(dec("18")))

	t.Run("nothing paid leaves the debt unpaid", func(t *testing.T) {
		order, err := f.service.CreateOrder(ctx, CreateOrderInput{
			ShopID:     f.shopID,
			UserID:     f.userID,
			CustomerID: &customer.ID,
			Items:      []OrderLineInput{{VariantID: v.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		debt, err := repos.CustomerDebts().FindByIDForShop(ctx, f.shopID, *order.DebtID)
		require.NoError(t, err)
		assert.Equal(t, finance.DebtStatusUnpaid, debt.Status)

		stored, err := repos.Customers().FindByIDForShop(ctx, f.shopID, customer.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalDebt.Equal(dec("28")))
	})
}

func TestOrderService_CreateOrder_WalkInUnderpaymentOpensNoDebt(t *testing.T) {
	f := newOrderFixture(t)
	v := f.variant(t, "Mug", 10)

	order, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		ShopID:     f.shopID,
		UserID:     f.userID,
		Items:      []OrderLineInput{{VariantID: v.ID, Quantity: 2}},
		PaidAmount: dec("5"),
	})
	require.NoError(t, err)
	assert.Nil(t, order.DebtID)
}

func TestOrderService_CreateOrder_Errors(t *testing.T) {
	f := newOrderFixture(t)
	v := f.variant(t, "Mug", 5)
	other := f.variant(t, "Plate", 1)
	foreignCustomer := f.customer(t, uuid.New())
	unknown := uuid.New()

	tests := []struct {
		name       string
		items      []OrderLineInput
		customerID *uuid.UUID
		paid       string
		errIs      error
	}{
		{"empty basket", nil, nil, "0", shared.ErrInvalidInput},
		{"zero quantity", []OrderLineInput{{VariantID: v.ID, Quantity: 0}}, nil, "0", shared.ErrInvalidInput},
		{"negative payment", []OrderLineInput{{VariantID: v.ID, Quantity: 1}}, nil, "-1", shared.ErrInvalidAmount},
		{"payment finer than the money scale", []OrderLineInput{{VariantID: v.ID, Quantity: 1}}, nil, "1.00005", shared.ErrInvalidAmount},
		{"unknown customer", []OrderLineInput{{VariantID: v.ID, Quantity: 1}}, &unknown, "0", shared.ErrInvalidCustomer},
		{"customer of another shop", []OrderLineInput{{VariantID: v.ID, Quantity: 1}}, &foreignCustomer.ID, "0", shared.ErrInvalidCustomer},
		{"unknown variant", []OrderLineInput{{VariantID: uuid.New(), Quantity: 1}}, nil, "0", shared.ErrNotFound},
		{"insufficient stock", []OrderLineInput{{VariantID: v.ID, Quantity: 6}}, nil, "0", shared.ErrInsufficientStock},
		{"one short line rejects the order", []OrderLineInput{{VariantID: v.ID, Quantity: 2}, {VariantID: other.ID, Quantity: 2}}, nil, "0", shared.ErrInsufficientStock},
		{"duplicate lines exceed stock", []OrderLineInput{{VariantID: v.ID, Quantity: 3}, {VariantID: v.ID, Quantity: 3}}, nil, "0", shared.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
				ShopID:     f.shopID,
				UserID:     f.userID,
				CustomerID: tt.customerID,
				Items:      tt.items,
				PaidAmount: dec(tt.paid),
			})
			assert.ErrorIs(t, err, tt.errIs)
		})
	}

	variantStock, productStock := f.stockOf(t, v)
	assert.Equal(t, 5, variantStock, "rejected orders leave stock untouched")
	assert.Equal(t, 5, productStock)
	otherStock, _ := f.stockOf(t, other)
	assert.Equal(t, 1, otherStock)
	assert.Equal(t, 0, f.recorder.orders)
}

func TestOrderService_CreateOrder_ConcurrentStock(t *testing.T) {
	f := newOrderFixture(t)
	v := f.variant(t, "Mug", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CreateOrder(context.Background(), CreateOrderInput{
				ShopID: f.shopID,
				UserID: f.userID,
				Items:  []OrderLineInput{{VariantID: v.ID, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	variantStock, productStock := f.stockOf(t, v)
	assert.Equal(t, 2, variantStock)
	assert.Equal(t, 2, productStock)
	assert.Equal(t, []string{StockSourceOrder}, f.recorder.rejected)
}

func TestOrderService_CreateOrder_MultipleLines(t *testing.T) {
	f := newOrderFixture(t)
	a := f.variant(t, "Shirt", 10)
	b := f.variant(t, "Scarf", 10)

	order, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		ShopID: f.shopID,
		UserID: f.userID,
		Items: []OrderLineInput{
			{VariantID: b.ID, Quantity: 6},
			{VariantID: a.ID, Quantity: 1},
			{VariantID: b.ID, Quantity: 1},
		},
		PaidAmount: dec("200"),
	})
	require.NoError(t, err)

	// 54 + 10 + 10
	assert.True(t, order.TotalPrice.Equal(dec("74")))
	assert.Equal(t, 8, order.TotalQuantity())

	stockA, _ := f.stockOf(t, a)
	stockB, _ := f.stockOf(t, b)
	assert.Equal(t, 9, stockA)
	assert.Equal(t, 3, stockB)
}
