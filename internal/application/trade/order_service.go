package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/trade"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockSourceOrder labels stock rejections raised while creating orders
const StockSourceOrder = "order"

// OrderService turns till baskets into completed orders
type OrderService struct {
	txScope     appshared.TransactionScope
	numbers     trade.OrderNumberGenerator
	invalidator appshared.ReportInvalidator
	recorder    appshared.BusinessRecorder
	logger      *zap.Logger
}

// Option configures OrderService
type Option func(*OrderService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *OrderService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReportInvalidator drops cached reports of the shop after each sale
func WithReportInvalidator(invalidator appshared.ReportInvalidator) Option {
	return func(s *OrderService) {
		s.invalidator = invalidator
	}
}

// WithRecorder sets the business metrics recorder
func WithRecorder(recorder appshared.BusinessRecorder) Option {
	return func(s *OrderService) {
		s.recorder = recorder
	}
}

// NewOrderService creates a new OrderService
func NewOrderService(txScope appshared.TransactionScope, numbers trade.OrderNumberGenerator, opts ...Option) *OrderService {
	s := &OrderService{
		txScope:     txScope,
		numbers:     numbers,
		invalidator: appshared.NoopInvalidator{},
		recorder:    appshared.NoopRecorder{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderLineInput is one basket line
type OrderLineInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// CreateOrderInput is a till basket
type CreateOrderInput struct {
	ShopID     uuid.UUID
	UserID     uuid.UUID
	CustomerID *uuid.UUID
	Items      []OrderLineInput
	PaidAmount decimal.Decimal
}

func (in CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return shared.ErrInvalidInput.WithMessage("Order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return shared.ErrInvalidInput.WithMessage("Item quantity must be positive")
		}
		if item.VariantID == uuid.Nil {
			return shared.ErrInvalidInput.WithMessage("Item variant is required")
		}
	}
	if in.PaidAmount.IsNegative() {
		return shared.ErrInvalidAmount.WithMessage("Paid amount cannot be negative")
	}
	return shared.CheckMoney("Paid amount", in.PaidAmount)
}

// CreateOrder prices every line, takes the stock and books the unpaid part as
// customer debt. Everything happens in one transaction; if any variant is short
// the whole order is rejected.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*trade.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trade", "create_order")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, in.ShopID,
		telemetry.SpanAttrUserID, in.UserID,
		"items", len(in.Items),
	)

	if err := in.validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var order *trade.Order
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		order, err = s.buildOrder(ctx, repos, in)
		if err != nil {
			return err
		}

		// one decrement per variant, in id order, so concurrent orders lock rows consistently
		quantities := make(map[uuid.UUID]int, len(in.Items))
		variantIDs := make([]uuid.UUID, 0, len(in.Items))
		for _, item := range in.Items {
			quantities[item.VariantID] += item.Quantity
			variantIDs = append(variantIDs, item.VariantID)
		}
		for _, id := range appshared.SortedIDs(variantIDs) {
			if err := repos.Variants().DecrementStock(ctx, in.ShopID, id, quantities[id]); err != nil {
				return err
			}
		}

		if order.NeedsCredit() {
			if err := s.openCustomerDebt(ctx, repos, order); err != nil {
				return err
			}
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return appshared.RecomputeProductStock(ctx, repos, order.ProductIDs()...)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.recorder.RecordStockRejected(ctx, in.ShopID, StockSourceOrder)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.invalidator.InvalidateShop(ctx, in.ShopID); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("shop_id", in.ShopID.String()), zap.Error(err))
	}
	s.recorder.RecordOrderCreated(ctx, in.ShopID, order.TotalPrice, order.TotalQuantity())

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID,
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrAmount, order.TotalPrice,
	)
	telemetry.SetOK(span)

	fields := []zap.Field{
		zap.String("shop_id", in.ShopID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalPrice.String()),
		zap.String("paid", order.PaidAmount.String()),
	}
	if order.DebtID != nil {
		fields = append(fields, zap.String("debt_id", order.DebtID.String()))
	}
	s.logger.Info("order created", fields...)
	return order, nil
}

// buildOrder loads the customer and variants and prices each line
func (s *OrderService) buildOrder(ctx context.Context, repos appshared.TransactionalRepositories, in CreateOrderInput) (*trade.Order, error) {
	order, err := trade.NewOrder(in.ShopID, in.UserID, s.numbers.Next())
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		if _, err := repos.Customers().FindByIDForUpdate(ctx, in.ShopID, *in.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.ErrInvalidCustomer
			}
			return nil, err
		}
		order.AssignCustomer(*in.CustomerID)
	}

	ids := make([]uuid.UUID, len(in.Items))
	for i, item := range in.Items {
		ids[i] = item.VariantID
	}
	variants, err := repos.Variants().FindByIDs(ctx, in.ShopID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	productIDs := make([]uuid.UUID, 0, len(variants))
	for _, v := range variants {
		productIDs = append(productIDs, v.ProductID)
	}
	products, err := repos.Products().FindByIDs(ctx, in.ShopID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	for _, item := range in.Items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Variant %s not found", item.VariantID))
		}
		if !variant.CanFulfil(item.Quantity) {
			return nil, shared.ErrInsufficientStock.WithMessage(fmt.Sprintf(
				"Only %d units of %s in stock", variant.StockQuantity, productName(products, variant)))
		}
		price, err := variant.PriceFor(item.Quantity)
		if err != nil {
			return nil, err
		}
		order.AddLine(variant, productName(products, variant), price)
	}

	if err := order.SettlePayment(in.PaidAmount); err != nil {
		return nil, err
	}
	return order, nil
}

// openCustomerDebt books the unpaid part of order and refreshes the customer balance
func (s *OrderService) openCustomerDebt(ctx context.Context, repos appshared.TransactionalRepositories, order *trade.Order) error {
	debt, err := finance.NewDebtToBePaid(order.ShopID, *order.CustomerID, order.TotalPrice, order.PaidAmount)
	if err != nil {
		return err
	}
	debt.LinkOrder(order.ID)
	debt.Description = "Order " + order.OrderNumber
	if err := repos.CustomerDebts().Save(ctx, debt); err != nil {
		return fmt.Errorf("failed to save customer debt: %w", err)
	}
	order.LinkDebt(debt.ID)

	customer, err := repos.Customers().FindByIDForShop(ctx, order.ShopID, *order.CustomerID)
	if err != nil {
		return err
	}
	_, err = appshared.RefreshCustomerBalance(ctx, repos, customer)
	return err
}

// GetOrder loads an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, shopID, orderID uuid.UUID) (*trade.Order, error) {
	return s.txScope.Repositories().Orders().FindByIDForShop(ctx, shopID, orderID)
}

func productName(products map[uuid.UUID]*catalog.Product, v *catalog.ProductVariant) string {
	if p, ok := products[v.ProductID]; ok {
		return p.Name
	}
	return ""
}
