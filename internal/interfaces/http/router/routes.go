package router

import (
	"github.com/retailpos/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of every domain
type Handlers struct {
	Ledger      *handler.LedgerHandler
	Catalog     *handler.CatalogHandler
	Orders      *handler.OrderHandler
	Inventory   *handler.InventoryHandler
	Bookkeeping *handler.BookkeepingHandler
	Reports     *handler.ReportHandler
	Health      *handler.HealthHandler
}

// DomainGroups builds the route groups for the back-office API
func DomainGroups(h Handlers) []*DomainGroup {
	ledger := NewDomainGroup("ledger", "/ledger")
	customers := ledger.Group("customers", "/customers")
	customers.POST("", h.Ledger.CreateCustomer).
		GET("/:id", h.Ledger.GetCustomer).
		GET("/:id/debts", h.Ledger.ListCustomerDebts).
		POST("/:id/payments", h.Ledger.PayCustomer).
		POST("/:id/recalculate", h.Ledger.RecalculateCustomer)
	suppliers := ledger.Group("suppliers", "/suppliers")
	suppliers.POST("", h.Ledger.CreateSupplier).
		POST("/:id/debts", h.Ledger.RecordSupplierDebt).
		GET("/:id/debts", h.Ledger.ListSupplierDebts).
		GET("/:id/balance", h.Ledger.GetSupplierBalance).
		POST("/:id/payments", h.Ledger.PaySupplier)

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.POST("/products", h.Catalog.CreateProduct).
		GET("/products/:id", h.Catalog.GetProduct).
		POST("/products/:id/variants", h.Catalog.CreateVariant).
		GET("/variants/:id", h.Catalog.GetVariant).
		PUT("/variants/:id", h.Catalog.UpdateVariant).
		DELETE("/variants/:id", h.Catalog.DeleteVariant).
		GET("/variants/:id/quote", h.Catalog.QuotePrice).
		POST("/variants/:id/reduce-stock", h.Catalog.ReduceStock)

	trade := NewDomainGroup("trade", "/trade")
	trade.POST("/orders", h.Orders.Create).
		GET("/orders/:id", h.Orders.Get)

	inventory := NewDomainGroup("inventory", "/inventory")
	inventory.POST("/waste", h.Inventory.RecordWaste).
		GET("/waste/:id", h.Inventory.GetWaste).
		PUT("/waste/:id/quantity", h.Inventory.CorrectQuantity)

	finance := NewDomainGroup("finance", "/finance")
	finance.POST("/expenses", h.Bookkeeping.RecordExpense).
		POST("/adjustments", h.Bookkeeping.RecordAdjustment)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/profit-loss", h.Reports.ProfitLoss).
		GET("/forecast", h.Reports.Forecast).
		GET("/shop", h.Reports.ShopReport).
		GET("/shop/export", h.Reports.ExportShopReport)

	return []*DomainGroup{ledger, catalog, trade, inventory, finance, reports}
}
