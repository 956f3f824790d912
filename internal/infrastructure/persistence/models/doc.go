// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Every model carries ToDomain/FromDomain mappers. Shop-owned rows embed
// ShopAggregateModel so that shop_id is always present and indexed.
//
// Structure:
// - base.go: base persistence models
// - partner.go: customers and suppliers
// - finance.go: customer and supplier debts, expenses, adjustments
// - catalog.go: products and variants
// - trade.go: orders and order items
// - inventory.go: waste records
// - registry.go: the model list used by AutoMigrate
package models
