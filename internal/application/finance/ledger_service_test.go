package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/strategy"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/strategy/allocation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ledgerFixture struct {
	scope   *persistence.GormTransactionScope
	service *LedgerService
	shopID  uuid.UUID
	base    time.Time
}

func newLedgerFixture(t *testing.T, opts ...LedgerOption) *ledgerFixture {
	t.Helper()
	db, err := persistence.NewSQLiteMemoryDatabase("ledger_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	scope := persistence.NewGormTransactionScope(db.DB)
	return &ledgerFixture{
		scope:   scope,
		service: NewLedgerService(scope, allocation.NewFIFOAllocationStrategy(), opts...),
		shopID:  uuid.New(),
		base:    time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (f *ledgerFixture) customer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := f.service.CreateCustomer(context.Background(), f.shopID, ContactInput{Name: "Rina", Phone: "0811"})
	require.NoError(t, err)
	return c
}

func (f *ledgerFixture) supplier(t *testing.T) *partner.Supplier {
	t.Helper()
	s, err := f.service.CreateSupplier(context.Background(), f.shopID, ContactInput{Name: "Textile Co"})
	require.NoError(t, err)
	return s
}

// customerDebt stores a debt created offset after the fixture base time and
// refreshes the customer's cached balance, as a sale would.
func (f *ledgerFixture) customerDebt(t *testing.T, customerID uuid.UUID, amount, paid string, offset time.Duration) *finance.DebtToBePaid {
	t.Helper()
	ctx := context.Background()
	d, err := finance.NewDebtToBePaid(f.shopID, customerID, dec(amount), dec(paid))
	require.NoError(t, err)
	d.CreatedAt = f.base.Add(offset)
	require.NoError(t, f.scope.Repositories().CustomerDebts().Save(ctx, d))
	_, err = f.service.RecalculateCustomerBalance(ctx, f.shopID, customerID)
	require.NoError(t, err)
	return d
}

func (f *ledgerFixture) supplierDebt(t *testing.T, supplierID uuid.UUID, amount string, offset time.Duration) *finance.DebtToPay {
	t.Helper()
	d, err := finance.NewDebtToPay(f.shopID, supplierID, dec(amount), decimal.Zero)
	require.NoError(t, err)
	d.CreatedAt = f.base.Add(offset)
	require.NoError(t, f.scope.Repositories().SupplierDebts().Save(context.Background(), d))
	return d
}

// assertLedgerConsistent checks the cached balance against the ledger and the
// per-debt balance rule.
func (f *ledgerFixture) assertLedgerConsistent(t *testing.T, customerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	repos := f.scope.Repositories()

	debts, err := repos.CustomerDebts().FindByCustomer(ctx, f.shopID, customerID, finance.DebtFilter{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, d := range debts {
		assert.NoError(t, d.CheckConsistency())
		assert.False(t, d.RemainingAmount.IsNegative())
		if !d.IsSettled() {
			sum = sum.Add(d.RemainingAmount)
		}
	}

	customer, err := repos.Customers().FindByIDForShop(ctx, f.shopID, customerID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(customer.TotalDebt), "cached %s, ledger %s", customer.TotalDebt, sum)
}

// ==================== Customer payments ====================

func TestLedgerService_ApplyCustomerPayment_FIFO(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	customer := f.customer(t)

	d2 := f.customerDebt(t, customer.ID, "50", "0", time.Hour)
	d1 := f.customerDebt(t, customer.ID, "30", "0", 0)

	result, err := f.service.ApplyCustomerPayment(ctx, f.shopID, customer.ID, dec("40"), PaymentOptions{})
	require.NoError(t, err)

	assert.True(t, result.Applied.Equal(dec("40")))
	assert.True(t, result.RemainingUnallocated.IsZero())
	assert.True(t, result.NewBalance.Equal(dec("40")))
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, d1.ID, result.Allocations[0].DebtID)
	assert.Equal(t, finance.DebtStatusPaid, result.Allocations[0].Status)
	assert.Equal(t, d2.ID, result.Allocations[1].DebtID)
	assert.True(t, result.Allocations[1].RemainingAfter.Equal(dec("40")))

	repo := f.scope.Repositories().CustomerDebts()
	stored1, err := repo.FindByIDForShop(ctx, f.shopID, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.DebtStatusPaid, stored1.Status)
	assert.True(t, stored1.RemainingAmount.IsZero())

	stored2, err := repo.FindByIDForShop(ctx, f.shopID, d2.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.DebtStatusPartial, stored2.Status)
	assert.True(t, stored2.RemainingAmount.Equal(dec("40")))
	require.Len(t, stored2.Payments, 1)
	assert.True(t, stored2.Payments[0].Amount.Equal(dec("10")))

	f.assertLedgerConsistent(t, customer.ID)
}

func TestLedgerService_ApplyCustomerPayment_Overpayment(t *testing.T) {
	f := newLedgerFixture(t)
	customer := f.customer(t)
	f.customerDebt(t, customer.ID, "25", "5", 0)

	result, err := f.service.ApplyCustomerPayment(context.Background(), f.shopID, customer.ID, dec("100"), PaymentOptions{})
	require.NoError(t, err)

	assert.True(t, result.Applied.Equal(dec("20")))
	assert.True(t, result.RemainingUnallocated.Equal(dec("80")), "leftover is returned, not stored")
	assert.True(t, result.NewBalance.IsZero())
	f.assertLedgerConsistent(t, customer.ID)
}

func TestLedgerService_ApplyCustomerPayment_NoOpenDebts(t *testing.T) {
	f := newLedgerFixture(t)
	customer := f.customer(t)

	result, err := f.service.ApplyCustomerPayment(context.Background(), f.shopID, customer.ID, dec("15"), PaymentOptions{})
	require.NoError(t, err)
	assert.True(t, result.Applied.IsZero())
	assert.True(t, result.RemainingUnallocated.Equal(dec("15")))
	assert.Empty(t, result.Allocations)
}

func TestLedgerService_ApplyCustomerPayment_Errors(t *testing.T) {
	f := newLedgerFixture(t)
	customer := f.customer(t)
	f.customerDebt(t, customer.ID, "10", "0", 0)

	tests := []struct {
		name       string
		shopID     uuid.UUID
		customerID uuid.UUID
		amount     decimal.Decimal
		errIs      error
	}{
		{"zero amount", f.shopID, customer.ID, decimal.Zero, shared.ErrInvalidAmount},
		{"negative amount", f.shopID, customer.ID, dec("-5"), shared.ErrInvalidAmount},
		{"below the money scale", f.shopID, customer.ID, dec("0.00005"), shared.ErrInvalidAmount},
		{"more than four decimal places", f.shopID, customer.ID, dec("3.33333"), shared.ErrInvalidAmount},
		{"unknown customer", f.shopID, uuid.New(), dec("5"), shared.ErrNotFound},
		{"customer of another shop", uuid.New(), customer.ID, dec("5"), shared.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.ApplyCustomerPayment(context.Background(), tt.shopID, tt.customerID, tt.amount, PaymentOptions{})
			assert.ErrorIs(t, err, tt.errIs)
		})
	}

	f.assertLedgerConsistent(t, customer.ID)
}

func TestLedgerService_PaymentSequenceKeepsBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	customer := f.customer(t)

	f.customerDebt(t, customer.ID, "12.50", "0", 0)
	f.customerDebt(t, customer.ID, "40", "10", time.Minute)
	f.customerDebt(t, customer.ID, "7.25", "0", 2*time.Minute)
	f.assertLedgerConsistent(t, customer.ID)

	for _, amount := range []string{"3", "9.50", "0.01", "20", "100"} {
		_, err := f.service.ApplyCustomerPayment(ctx, f.shopID, customer.ID, dec(amount), PaymentOptions{})
		require.NoError(t, err)
		f.assertLedgerConsistent(t, customer.ID)
	}

	balance, err := f.service.RecalculateCustomerBalance(ctx, f.shopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestLedgerService_ConcurrentPayments(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	customer := f.customer(t)
	f.customerDebt(t, customer.ID, "100", "0", 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ApplyCustomerPayment(ctx, f.shopID, customer.ID, dec("30"), PaymentOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := f.service.GetCustomer(ctx, f.shopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalDebt.IsZero())
	f.assertLedgerConsistent(t, customer.ID)
}

type overAllocator struct {
	strategy.BaseStrategy
}

func (overAllocator) Allocate(_ context.Context, allocCtx strategy.AllocationContext, debts []strategy.OpenDebt) (strategy.AllocationResult, error) {
	d := debts[0]
	return strategy.AllocationResult{
		Allocations: []strategy.Allocation{{
			DebtID:          d.ID,
			AllocatedAmount: allocCtx.PaymentAmount,
			RemainingBefore: d.Remaining,
			RemainingAfter:  d.Remaining.Sub(allocCtx.PaymentAmount),
		}},
		TotalAllocated: allocCtx.PaymentAmount,
		Remaining:      decimal.Zero,
	}, nil
}

func TestLedgerService_ConsistencyViolation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newLedgerFixture(t)
	f.service = NewLedgerService(f.scope, overAllocator{}, WithLogger(zap.New(core)))
	customer := f.customer(t)
	debt := f.customerDebt(t, customer.ID, "10", "0", 0)

	_, err := f.service.ApplyCustomerPayment(context.Background(), f.shopID, customer.ID, dec("15"), PaymentOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConsistencyViolation)
	assert.Equal(t, 1, logs.FilterMessage("ledger consistency violation").Len())

	stored, err := f.scope.Repositories().CustomerDebts().FindByIDForShop(context.Background(), f.shopID, debt.ID)
	require.NoError(t, err)
	assert.True(t, stored.RemainingAmount.Equal(dec("10")), "rolled back")
}

// ==================== Idempotency & locking ====================

func TestLedgerService_IdempotencyKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	f := newLedgerFixture(t, WithIdempotency(store, time.Hour))
	ctx := context.Background()
	customer := f.customer(t)
	f.customerDebt(t, customer.ID, "50", "0", 0)

	opts := PaymentOptions{IdempotencyKey: "till-7-receipt-19"}

	_, err := f.service.ApplyCustomerPayment(ctx, f.shopID, customer.ID, dec("20"), opts)
	require.NoError(t, err)

	_, err = f.service.ApplyCustomerPayment(ctx, f.shopID, customer.ID, dec("20"), opts)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

	found, err := f.service.GetCustomer(ctx, f.shopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalDebt.Equal(dec("30")), "retry applied once")

	t.Run("failed payment releases the key", func(t *testing.T) {
		failing := PaymentOptions{IdempotencyKey: "retry-me"}
		_, err := f.service.ApplyCustomerPayment(ctx, f.shopID, uuid.New(), dec("5"), failing)
		require.ErrorIs(t, err, shared.ErrNotFound)

		assert.Equal(t, 1, store.Size())
	})
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

func TestLedgerService_PartyLock(t *testing.T) {
	t.Run("locks by shop and party", func(t *testing.T) {
		locker := &recordingLocker{}
		f := newLedgerFixture(t, WithPartyLocker(locker, time.Second))
		customer := f.customer(t)

		_, err := f.service.ApplyCustomerPayment(context.Background(), f.shopID, customer.ID, dec("1"), PaymentOptions{})
		require.NoError(t, err)
		require.Len(t, locker.keys, 1)
		assert.Contains(t, locker.keys[0], appshared.PartyCustomer)
		assert.Contains(t, locker.keys[0], customer.ID.String())
	})

	t.Run("lock failure does not block payment", func(t *testing.T) {
		locker := &recordingLocker{err: errors.New("redis down")}
		f := newLedgerFixture(t, WithPartyLocker(locker, time.Second))
		customer := f.customer(t)
		f.customerDebt(t, customer.ID, "10", "0", 0)

		result, err := f.service.ApplyCustomerPayment(context.Background(), f.shopID, customer.ID, dec("4"), PaymentOptions{})
		require.NoError(t, err)
		assert.True(t, result.NewBalance.Equal(dec("6")))
	})
}

// ==================== Balances & listings ====================

func TestLedgerService_RecalculateCustomerBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	customer := f.customer(t)
	f.customerDebt(t, customer.ID, "30", "10", 0)
	f.customerDebt(t, customer.ID, "15", "15", time.Minute)

	balance, err := f.service.RecalculateCustomerBalance(ctx, f.shopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("20")))
	f.assertLedgerConsistent(t, customer.ID)

	_, err = f.service.RecalculateCustomerBalance(ctx, uuid.New(), customer.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLedgerService_ListCustomerDebts(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	customer := f.customer(t)
	paid := f.customerDebt(t, customer.ID, "15", "15", 0)
	open := f.customerDebt(t, customer.ID, "30", "0", time.Minute)

	all, err := f.service.ListCustomerDebts(ctx, f.shopID, customer.ID, finance.DebtFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, paid.ID, all[0].ID)

	openOnly, err := f.service.ListCustomerDebts(ctx, f.shopID, customer.ID, finance.DebtFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, open.ID, openOnly[0].ID)

	_, err = f.service.ListCustomerDebts(ctx, uuid.New(), customer.ID, finance.DebtFilter{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ==================== Suppliers ====================

func TestLedgerService_RecordSupplierDebt(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	supplier := f.supplier(t)
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	debt, err := f.service.RecordSupplierDebt(ctx, RecordSupplierDebtInput{
		ShopID:      f.shopID,
		SupplierID:  supplier.ID,
		Amount:      dec("500"),
		Paid:        dec("100"),
		DueDate:     &due,
		Description: "March fabric",
	})
	require.NoError(t, err)
	assert.Equal(t, finance.DebtStatusPartial, debt.Status)
	assert.True(t, debt.RemainingAmount.Equal(dec("400")))

	balance, err := f.service.GetSupplierBalance(ctx, f.shopID, supplier.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("400")))

	tests := []struct {
		name  string
		in    RecordSupplierDebtInput
		errIs error
	}{
		{"paid above amount", RecordSupplierDebtInput{ShopID: f.shopID, SupplierID: supplier.ID, Amount: dec("10"), Paid: dec("11")}, shared.ErrInvalidAmount},
		{"zero amount", RecordSupplierDebtInput{ShopID: f.shopID, SupplierID: supplier.ID, Amount: decimal.Zero}, shared.ErrInvalidAmount},
		{"unknown supplier", RecordSupplierDebtInput{ShopID: f.shopID, SupplierID: uuid.New(), Amount: dec("10")}, shared.ErrNotFound},
		{"foreign supplier", RecordSupplierDebtInput{ShopID: uuid.New(), SupplierID: supplier.ID, Amount: dec("10")}, shared.ErrNotFound},
		{"unknown product", RecordSupplierDebtInput{ShopID: f.shopID, SupplierID: supplier.ID, Amount: dec("10"), ProductID: ptrUUID(uuid.New())}, shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RecordSupplierDebt(ctx, tt.in)
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}

func TestLedgerService_ApplySupplierPayment(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	supplier := f.supplier(t)
	older := f.supplierDebt(t, supplier.ID, "200", 0)
	newer := f.supplierDebt(t, supplier.ID, "300", time.Hour)

	result, err := f.service.ApplySupplierPayment(ctx, f.shopID, supplier.ID, dec("250"), PaymentOptions{})
	require.NoError(t, err)
	assert.True(t, result.Applied.Equal(dec("250")))
	assert.True(t, result.NewBalance.Equal(dec("250")))
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, older.ID, result.Allocations[0].DebtID)
	assert.Equal(t, newer.ID, result.Allocations[1].DebtID)

	debts, err := f.service.ListSupplierDebts(ctx, f.shopID, supplier.ID, finance.DebtFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.True(t, debts[0].RemainingAmount.Equal(dec("250")))

	_, err = f.service.ApplySupplierPayment(ctx, f.shopID, supplier.ID, dec("-1"), PaymentOptions{})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestLedgerService_CreateParties(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateCustomer(ctx, f.shopID, ContactInput{Name: "  "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.service.CreateSupplier(ctx, f.shopID, ContactInput{Name: "Mill", Email: "not-an-email"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	c := f.customer(t)
	found, err := f.service.GetCustomer(ctx, f.shopID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rina", found.Name)
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	return &id
}
