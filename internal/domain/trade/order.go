package trade

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s OrderStatus) IsValid() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItem is a sold line. Every field is a snapshot taken at sale time and is
// never recomputed from the current variant.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	VariantID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ColorName   string
	SizeName    string
	Quantity    int
	Price       decimal.Decimal // line total
	UnitPrice   decimal.Decimal
}

// Order is a completed point-of-sale transaction
type Order struct {
	shared.ShopAggregateRoot
	OrderNumber string
	UserID      uuid.UUID
	CustomerID  *uuid.UUID
	Status      OrderStatus
	TotalPrice  decimal.Decimal
	PaidAmount  decimal.Decimal
	DebtID      *uuid.UUID
	Items       []OrderItem
}

// NewOrder starts an order. Lines are added with AddLine and the payment is
// finalised with SettlePayment.
func NewOrder(shopID, userID uuid.UUID, orderNumber string) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Order number cannot be empty")
	}
	return &Order{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Status:            OrderStatusCompleted,
		TotalPrice:        decimal.Zero,
		PaidAmount:        decimal.Zero,
		Items:             make([]OrderItem, 0),
	}, nil
}

// AddLine appends a priced line for variant and adds it to the total
func (o *Order) AddLine(variant *catalog.ProductVariant, productName string, price catalog.LinePrice) {
	o.Items = append(o.Items, OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		VariantID:   variant.ID,
		ProductID:   variant.ProductID,
		ProductName: productName,
		ColorName:   variant.ColorName,
		SizeName:    variant.SizeName,
		Quantity:    price.Quantity,
		Price:       price.Revenue,
		UnitPrice:   price.UnitPrice,
	})
	o.TotalPrice = o.TotalPrice.Add(price.Revenue)
}

// AssignCustomer links the buying customer
func (o *Order) AssignCustomer(customerID uuid.UUID) {
	o.CustomerID = &customerID
}

// SettlePayment records the amount paid at the till
func (o *Order) SettlePayment(paid decimal.Decimal) error {
	if paid.IsNegative() {
		return shared.ErrInvalidAmount.WithMessage("Paid amount cannot be negative")
	}
	if err := shared.CheckMoney("Paid amount", paid); err != nil {
		return err
	}
	o.PaidAmount = paid
	return nil
}

// Shortfall is the unpaid part of the order, never negative
func (o *Order) Shortfall() decimal.Decimal {
	diff := o.TotalPrice.Sub(o.PaidAmount)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// NeedsCredit reports whether a debt has to be opened for the customer
func (o *Order) NeedsCredit() bool {
	return o.CustomerID != nil && o.Shortfall().IsPositive()
}

// LinkDebt records the debt opened for the shortfall
func (o *Order) LinkDebt(debtID uuid.UUID) {
	o.DebtID = &debtID
}

// TotalQuantity is the number of units sold
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ProductIDs returns the distinct products touched by the order
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
