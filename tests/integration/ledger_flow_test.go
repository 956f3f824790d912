package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	financeapp "github.com/retailpos/backend/internal/application/finance"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
	reportapp "github.com/retailpos/backend/internal/application/report"
	tradeapp "github.com/retailpos/backend/internal/application/trade"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/idgen"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/strategy/allocation"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// LedgerTestSetup wires the application services over a real PostgreSQL
type LedgerTestSetup struct {
	DB          *TestDB
	Ledger      *financeapp.LedgerService
	Bookkeeping *financeapp.BookkeepingService
	Variants    *catalogapp.VariantService
	Orders      *tradeapp.OrderService
	Waste       *inventoryapp.WasteService
	Reports     *reportapp.ReportService
	ShopID      uuid.UUID
	UserID      uuid.UUID
}

// NewLedgerTestSetup creates the services for a fresh shop
func NewLedgerTestSetup(t *testing.T) *LedgerTestSetup {
	t.Helper()

	testDB := NewTestDB(t)
	log := zap.NewNop()

	numbers, err := idgen.NewSnowflakeOrderNumbers(7, "ORD")
	require.NoError(t, err)
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	scope := persistence.NewGormTransactionScope(testDB.DB)
	return &LedgerTestSetup{
		DB: testDB,
		Ledger: financeapp.NewLedgerService(scope, allocation.NewFIFOAllocationStrategy(),
			financeapp.WithLogger(log),
			financeapp.WithIdempotency(idempotency, time.Hour),
		),
		Bookkeeping: financeapp.NewBookkeepingService(scope, nil, log),
		Variants:    catalogapp.NewVariantService(scope, catalogapp.WithLogger(log)),
		Orders:      tradeapp.NewOrderService(scope, numbers, tradeapp.WithLogger(log)),
		Waste:       inventoryapp.NewWasteService(scope, inventoryapp.WithLogger(log)),
		Reports:     reportapp.NewReportService(persistence.NewGormReportReader(testDB.DB), reportapp.WithLogger(log)),
		ShopID:      uuid.New(),
		UserID:      uuid.New(),
	}
}

// packVariant creates a product with a pack-of-6 variant: pack 54, single 10, purchase 4
func (s *LedgerTestSetup) packVariant(t *testing.T, name string, stock int) *catalog.ProductVariant {
	t.Helper()
	ctx := context.Background()

	product, err := s.Variants.CreateProduct(ctx, s.ShopID, catalogapp.CreateProductInput{Name: name, SKU: "SKU-" + name})
	require.NoError(t, err)
	variant, err := s.Variants.CreateVariant(ctx, s.ShopID, product.ID, catalogapp.CreateVariantInput{
		Color: "Blue",
		Size:  "M",
		Pricing: catalog.VariantPricing{
			PurchasePrice:   testutil.Dec("4"),
			SingleSalePrice: testutil.Dec("10"),
			PackSalePrice:   testutil.Dec("54"),
			IsPack:          true,
			UnitsPerPack:    6,
		},
		Stock: stock,
	})
	require.NoError(t, err)
	return variant
}

func (s *LedgerTestSetup) creditOrder(t *testing.T, customerID uuid.UUID, variantID uuid.UUID, qty int, paid string) {
	t.Helper()
	_, err := s.Orders.CreateOrder(context.Background(), tradeapp.CreateOrderInput{
		ShopID:     s.ShopID,
		UserID:     s.UserID,
		CustomerID: &customerID,
		Items:      []tradeapp.OrderLineInput{{VariantID: variantID, Quantity: qty}},
		PaidAmount: testutil.Dec(paid),
	})
	require.NoError(t, err)
}

// assertCustomerConsistent checks the cached balance against the open debts
func (s *LedgerTestSetup) assertCustomerConsistent(t *testing.T, customerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	debts, err := s.Ledger.ListCustomerDebts(ctx, s.ShopID, customerID, finance.DebtFilter{})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, d := range debts {
		assert.NoError(t, d.CheckConsistency())
		sum = sum.Add(d.RemainingAmount)
	}

	customer, err := s.Ledger.GetCustomer(ctx, s.ShopID, customerID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(customer.TotalDebt), "cached %s, ledger %s", customer.TotalDebt, sum)
}

// ==================== Customer ledger ====================

func TestLedgerFlow_CreditSalesAndFIFOPayment(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Rina", Phone: "0811"})
	require.NoError(t, err)
	variant := s.packVariant(t, "Shirt", 30)

	s.creditOrder(t, customer.ID, variant.ID, 1, "0")
	s.creditOrder(t, customer.ID, variant.ID, 6, "0")

	found, err := s.Ledger.GetCustomer(ctx, s.ShopID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "64", found.TotalDebt.String())

	result, err := s.Ledger.ApplyCustomerPayment(ctx, s.ShopID, customer.ID, testutil.Dec("20"), financeapp.PaymentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "20", result.Applied.String())
	assert.Equal(t, "44", result.NewBalance.String())
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, finance.DebtStatusPaid, result.Allocations[0].Status)
	assert.Equal(t, finance.DebtStatusPartial, result.Allocations[1].Status)
	assert.Equal(t, "10", result.Allocations[1].Amount.String())

	s.assertCustomerConsistent(t, customer.ID)

	balance, err := s.Ledger.RecalculateCustomerBalance(ctx, s.ShopID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "44", balance.String())
}

func TestLedgerFlow_Overpayment(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Dewi"})
	require.NoError(t, err)
	variant := s.packVariant(t, "Scarf", 10)
	s.creditOrder(t, customer.ID, variant.ID, 2, "0")

	result, err := s.Ledger.ApplyCustomerPayment(ctx, s.ShopID, customer.ID, testutil.Dec("50"), financeapp.PaymentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "20", result.Applied.String())
	assert.Equal(t, "30", result.RemainingUnallocated.String())
	assert.True(t, result.NewBalance.IsZero())
	s.assertCustomerConsistent(t, customer.ID)
}

// Row locks must serialize payments for the same customer
func TestLedgerFlow_ConcurrentPayments(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Budi"})
	require.NoError(t, err)
	variant := s.packVariant(t, "Socks", 50)
	for i := 0; i < 5; i++ {
		s.creditOrder(t, customer.ID, variant.ID, 2, "0")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied = decimal.Zero
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.Ledger.ApplyCustomerPayment(ctx, s.ShopID, customer.ID, testutil.Dec("15"), financeapp.PaymentOptions{})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			applied = applied.Add(result.Applied)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, "100", applied.String())
	found, err := s.Ledger.GetCustomer(ctx, s.ShopID, customer.ID)
	require.NoError(t, err)
	assert.True(t, found.TotalDebt.IsZero())
	s.assertCustomerConsistent(t, customer.ID)
}

func TestLedgerFlow_IdempotentPayment(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Sari"})
	require.NoError(t, err)
	variant := s.packVariant(t, "Hat", 10)
	s.creditOrder(t, customer.ID, variant.ID, 5, "0")

	opts := financeapp.PaymentOptions{IdempotencyKey: "till-1-0001"}
	_, err = s.Ledger.ApplyCustomerPayment(ctx, s.ShopID, customer.ID, testutil.Dec("20"), opts)
	require.NoError(t, err)
	_, err = s.Ledger.ApplyCustomerPayment(ctx, s.ShopID, customer.ID, testutil.Dec("20"), opts)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

	found, err := s.Ledger.GetCustomer(ctx, s.ShopID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "30", found.TotalDebt.String())
}

// ==================== Supplier ledger ====================

func TestLedgerFlow_SupplierDebts(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	supplier, err := s.Ledger.CreateSupplier(ctx, s.ShopID, financeapp.ContactInput{Name: "Textile Co"})
	require.NoError(t, err)

	_, err = s.Ledger.RecordSupplierDebt(ctx, financeapp.RecordSupplierDebtInput{
		ShopID: s.ShopID, SupplierID: supplier.ID, Amount: testutil.Dec("100"), Paid: testutil.Dec("30"),
	})
	require.NoError(t, err)
	_, err = s.Ledger.RecordSupplierDebt(ctx, financeapp.RecordSupplierDebtInput{
		ShopID: s.ShopID, SupplierID: supplier.ID, Amount: testutil.Dec("40"), Paid: decimal.Zero,
	})
	require.NoError(t, err)

	balance, err := s.Ledger.GetSupplierBalance(ctx, s.ShopID, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "110", balance.String())

	result, err := s.Ledger.ApplySupplierPayment(ctx, s.ShopID, supplier.ID, testutil.Dec("80"), financeapp.PaymentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "30", result.NewBalance.String())

	open, err := s.Ledger.ListSupplierDebts(ctx, s.ShopID, supplier.ID, finance.DebtFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "30", open[0].RemainingAmount.String())
}

// ==================== Orders and stock ====================

func TestLedgerFlow_OrderRollsBackOnShortStock(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Tono"})
	require.NoError(t, err)
	plenty := s.packVariant(t, "Belt", 20)
	short := s.packVariant(t, "Tie", 1)

	_, err = s.Orders.CreateOrder(ctx, tradeapp.CreateOrderInput{
		ShopID:     s.ShopID,
		UserID:     s.UserID,
		CustomerID: &customer.ID,
		Items: []tradeapp.OrderLineInput{
			{VariantID: plenty.ID, Quantity: 5},
			{VariantID: short.ID, Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	reloaded, err := s.Variants.GetVariant(ctx, s.ShopID, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.StockQuantity)
	assert.Zero(t, s.DB.CountRows("orders", s.ShopID.String()))
	assert.Zero(t, s.DB.CountRows("debts_to_be_paid", s.ShopID.String()))
}

func TestLedgerFlow_WasteCorrection(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()
	variant := s.packVariant(t, "Glove", 10)

	record, err := s.Waste.RecordWaste(ctx, inventoryapp.RecordWasteInput{
		ShopID: s.ShopID, UserID: s.UserID, VariantID: variant.ID, Quantity: 3, Reason: "torn",
	})
	require.NoError(t, err)

	_, err = s.Waste.CorrectWasteQuantity(ctx, s.ShopID, record.ID, 1)
	require.NoError(t, err)

	reloaded, err := s.Variants.GetVariant(ctx, s.ShopID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, reloaded.StockQuantity)
}

// ==================== Reports ====================

func TestLedgerFlow_ProfitLossOnPostgres(t *testing.T) {
	s := NewLedgerTestSetup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	customer, err := s.Ledger.CreateCustomer(ctx, s.ShopID, financeapp.ContactInput{Name: "Ayu"})
	require.NoError(t, err)
	variant := s.packVariant(t, "Shirt", 20)
	s.creditOrder(t, customer.ID, variant.ID, 8, "74")

	_, err = s.Waste.RecordWaste(ctx, inventoryapp.RecordWasteInput{
		ShopID: s.ShopID, UserID: s.UserID, VariantID: variant.ID, Quantity: 2,
	})
	require.NoError(t, err)
	_, err = s.Bookkeeping.RecordExpense(ctx, financeapp.RecordExpenseInput{
		ShopID: s.ShopID, UserID: s.UserID, Date: now, Amount: testutil.Dec("10"), Category: finance.ExpenseCategoryUtility,
	})
	require.NoError(t, err)
	_, err = s.Bookkeeping.RecordAdjustment(ctx, financeapp.RecordAdjustmentInput{
		ShopID: s.ShopID, UserID: s.UserID, Date: now, Amount: testutil.Dec("-5"), Type: finance.AdjustmentTypeLoss,
	})
	require.NoError(t, err)

	today := now.Format(report.DateLayout)
	pl, err := s.Reports.BuildPLReport(ctx, s.ShopID, report.PeriodQuery{
		Period: string(report.PeriodCustom), StartDate: today, EndDate: today,
	})
	require.NoError(t, err)

	totals := pl.Totals
	assert.Equal(t, "74", totals.Revenue.String())
	assert.Equal(t, "32", totals.COGS.String())
	assert.Equal(t, "8", totals.WasteLoss.String())
	assert.Equal(t, "34", totals.GrossProfit.String())
	assert.Equal(t, "19", totals.NetProfit.String())
	assert.Equal(t, 8, totals.ItemsSold)
	assert.Equal(t, 1, totals.OrderCount)

	other, err := s.Reports.BuildPLReport(ctx, uuid.New(), report.PeriodQuery{
		Period: string(report.PeriodCustom), StartDate: today, EndDate: today,
	})
	require.NoError(t, err)
	assert.True(t, other.Totals.Revenue.IsZero())

	forecast, err := s.Reports.ForecastDemand(ctx, s.ShopID, 1, 5)
	require.NoError(t, err)
	require.NotEmpty(t, forecast.BestSelling)
	assert.Equal(t, variant.ID, forecast.BestSelling[0].VariantID)
}
