package models

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	ShopAggregateModel
	OrderNumber string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null"`
	CustomerID  *uuid.UUID        `gorm:"type:uuid;index"`
	Status      trade.OrderStatus `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	TotalPrice  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PaidAmount  decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	DebtID      *uuid.UUID        `gorm:"type:uuid"`
	Items       []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		CustomerID:        m.CustomerID,
		Status:            m.Status,
		TotalPrice:        m.TotalPrice,
		PaidAmount:        m.PaidAmount,
		DebtID:            m.DebtID,
		Items:             make([]trade.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainShopAggregateRoot(o.ShopAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.UserID = o.UserID
	m.CustomerID = o.CustomerID
	m.Status = o.Status
	m.TotalPrice = o.TotalPrice
	m.PaidAmount = o.PaidAmount
	m.DebtID = o.DebtID
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(o.ID, &o.Items[i])
		m.Items[i].Line = i + 1
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line.
// Names and prices are snapshots and are never updated after insert.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Line        int             `gorm:"not null;default:0"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ColorName   string          `gorm:"type:varchar(100)"`
	SizeName    string          `gorm:"type:varchar(50)"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		VariantID:   m.VariantID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		ColorName:   m.ColorName,
		SizeName:    m.SizeName,
		Quantity:    m.Quantity,
		Price:       m.Price,
		UnitPrice:   m.UnitPrice,
	}
}

// OrderItemModelFromDomain creates a persistence model for an order line.
func OrderItemModelFromDomain(orderID uuid.UUID, item *trade.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:          item.ID,
		OrderID:     orderID,
		VariantID:   item.VariantID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ColorName:   item.ColorName,
		SizeName:    item.SizeName,
		Quantity:    item.Quantity,
		Price:       item.Price,
		UnitPrice:   item.UnitPrice,
	}
}
