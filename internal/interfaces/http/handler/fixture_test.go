package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	financeapp "github.com/retailpos/backend/internal/application/finance"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
	reportapp "github.com/retailpos/backend/internal/application/report"
	tradeapp "github.com/retailpos/backend/internal/application/trade"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/export"
	"github.com/retailpos/backend/internal/infrastructure/idgen"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/strategy/allocation"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// apiFixture serves the handlers over real services on an in-memory sqlite database
type apiFixture struct {
	engine *gin.Engine
	db     *persistence.Database
	shopID uuid.UUID
	userID uuid.UUID
}

type fixtureOptions struct {
	withoutRenderer bool
}

func newAPIFixture(t *testing.T, opts ...func(*fixtureOptions)) *apiFixture {
	t.Helper()
	var o fixtureOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := persistence.NewSQLiteMemoryDatabase("api_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	numbers, err := idgen.NewSnowflakeOrderNumbers(1, "ORD")
	require.NoError(t, err)

	scope := persistence.NewGormTransactionScope(db.DB)
	reportOpts := []reportapp.Option{}
	if !o.withoutRenderer {
		reportOpts = append(reportOpts, reportapp.WithRenderer(export.NewXLSXRenderer()))
	}

	ledger := NewLedgerHandler(financeapp.NewLedgerService(scope, allocation.NewFIFOAllocationStrategy(),
		financeapp.WithIdempotency(idempotency, time.Hour),
	))
	catalog := NewCatalogHandler(catalogapp.NewVariantService(scope))
	orders := NewOrderHandler(tradeapp.NewOrderService(scope, numbers))
	inventory := NewInventoryHandler(inventoryapp.NewWasteService(scope))
	bookkeeping := NewBookkeepingHandler(financeapp.NewBookkeepingService(scope, nil, nil))
	reports := NewReportHandler(reportapp.NewReportService(persistence.NewGormReportReader(db.DB), reportOpts...))

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", NewHealthHandler(db).Check)

	api := engine.Group("/api/v1", middleware.ShopContext(middleware.DefaultShopConfig()))
	api.POST("/ledger/customers", ledger.CreateCustomer)
	api.GET("/ledger/customers/:id", ledger.GetCustomer)
	api.GET("/ledger/customers/:id/debts", ledger.ListCustomerDebts)
	api.POST("/ledger/customers/:id/payments", ledger.PayCustomer)
	api.POST("/ledger/customers/:id/recalculate", ledger.RecalculateCustomer)
	api.POST("/ledger/suppliers", ledger.CreateSupplier)
	api.POST("/ledger/suppliers/:id/debts", ledger.RecordSupplierDebt)
	api.GET("/ledger/suppliers/:id/debts", ledger.ListSupplierDebts)
	api.GET("/ledger/suppliers/:id/balance", ledger.GetSupplierBalance)
	api.POST("/ledger/suppliers/:id/payments", ledger.PaySupplier)
	api.POST("/catalog/products", catalog.CreateProduct)
	api.GET("/catalog/products/:id", catalog.GetProduct)
	api.POST("/catalog/products/:id/variants", catalog.CreateVariant)
	api.GET("/catalog/variants/:id", catalog.GetVariant)
	api.PUT("/catalog/variants/:id", catalog.UpdateVariant)
	api.DELETE("/catalog/variants/:id", catalog.DeleteVariant)
	api.GET("/catalog/variants/:id/quote", catalog.QuotePrice)
	api.POST("/catalog/variants/:id/reduce-stock", catalog.ReduceStock)
	api.POST("/trade/orders", orders.Create)
	api.GET("/trade/orders/:id", orders.Get)
	api.POST("/inventory/waste", inventory.RecordWaste)
	api.GET("/inventory/waste/:id", inventory.GetWaste)
	api.PUT("/inventory/waste/:id/quantity", inventory.CorrectQuantity)
	api.POST("/finance/expenses", bookkeeping.RecordExpense)
	api.POST("/finance/adjustments", bookkeeping.RecordAdjustment)
	api.GET("/reports/profit-loss", reports.ProfitLoss)
	api.GET("/reports/forecast", reports.Forecast)
	api.GET("/reports/shop", reports.ShopReport)
	api.GET("/reports/shop/export", reports.ExportShopReport)

	return &apiFixture{
		engine: engine,
		db:     db,
		shopID: uuid.New(),
		userID: uuid.New(),
	}
}

func withoutRenderer(o *fixtureOptions) { o.withoutRenderer = true }

// request sends body as JSON with the fixture's shop and user headers
func (f *apiFixture) request(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ShopIDHeader, f.shopID.String())
	req.Header.Set(middleware.UserIDHeader, f.userID.String())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// decodeData asserts status and unmarshals the data payload into T
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// errorCode asserts status and returns the error code of the envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

// ==================== seed helpers ====================

func (f *apiFixture) createCustomer(t *testing.T, name string) CustomerResponse {
	t.Helper()
	w := f.request(http.MethodPost, "/api/v1/ledger/customers", map[string]string{"name": name, "phone": "0811"})
	return decodeData[CustomerResponse](t, w, http.StatusCreated)
}

// packVariant creates a product with one variant: pack of 6 at 54, single 10, purchase 4
func (f *apiFixture) packVariant(t *testing.T, name string, stock int) VariantResponse {
	t.Helper()
	w := f.request(http.MethodPost, "/api/v1/catalog/products", map[string]string{"name": name, "sku": "SKU-" + name})
	product := decodeData[ProductResponse](t, w, http.StatusCreated)

	w = f.request(http.MethodPost, "/api/v1/catalog/products/"+product.ID.String()+"/variants", map[string]any{
		"color":             "Blue",
		"size":              "M",
		"purchase_price":    "4",
		"single_sale_price": "10",
		"pack_sale_price":   "54",
		"is_pack":           true,
		"units_per_pack":    6,
		"stock":             stock,
	})
	return decodeData[VariantResponse](t, w, http.StatusCreated)
}

func (f *apiFixture) createOrder(t *testing.T, customerID *uuid.UUID, variantID uuid.UUID, qty int, paid string) OrderResponse {
	t.Helper()
	body := map[string]any{
		"items":       []map[string]any{{"variant_id": variantID, "quantity": qty}},
		"paid_amount": paid,
	}
	if customerID != nil {
		body["customer_id"] = customerID
	}
	w := f.request(http.MethodPost, "/api/v1/trade/orders", body)
	return decodeData[OrderResponse](t, w, http.StatusCreated)
}
