package handler

import (
	"time"

	"github.com/google/uuid"
	tradeapp "github.com/retailpos/backend/internal/application/trade"
	"github.com/retailpos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderLineRequest is one basket line
type OrderLineRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest is a till basket. Paying less than the total with a
// customer set opens a customer debt for the rest.
type CreateOrderRequest struct {
	CustomerID *uuid.UUID         `json:"customer_id"`
	Items      []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
	PaidAmount decimal.Decimal    `json:"paid_amount" binding:"dnonneg"`
}

func (r CreateOrderRequest) input(shopID, userID uuid.UUID) tradeapp.CreateOrderInput {
	items := make([]tradeapp.OrderLineInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, tradeapp.OrderLineInput(item))
	}
	return tradeapp.CreateOrderInput{
		ShopID:     shopID,
		UserID:     userID,
		CustomerID: r.CustomerID,
		Items:      items,
		PaidAmount: r.PaidAmount,
	}
}

// OrderItemResponse is a sold line as snapshotted at sale time
type OrderItemResponse struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Price       decimal.Decimal `json:"price"`
}

// OrderResponse is a completed order
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"order_number"`
	Status      trade.OrderStatus   `json:"status"`
	CustomerID  *uuid.UUID          `json:"customer_id,omitempty"`
	UserID      uuid.UUID           `json:"user_id"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	PaidAmount  decimal.Decimal     `json:"paid_amount"`
	DebtID      *uuid.UUID          `json:"debt_id,omitempty"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			VariantID:   item.VariantID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Color:       item.ColorName,
			Size:        item.SizeName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Price:       item.Price,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		CustomerID:  o.CustomerID,
		UserID:      o.UserID,
		TotalPrice:  o.TotalPrice,
		PaidAmount:  o.PaidAmount,
		DebtID:      o.DebtID,
		Items:       items,
		CreatedAt:   o.CreatedAt,
	}
}
