package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BookkeepingService records expenses and profit adjustments
type BookkeepingService struct {
	txScope     appshared.TransactionScope
	invalidator appshared.ReportInvalidator
	logger      *zap.Logger
}

// NewBookkeepingService creates a new BookkeepingService
func NewBookkeepingService(txScope appshared.TransactionScope, invalidator appshared.ReportInvalidator, logger *zap.Logger) *BookkeepingService {
	if invalidator == nil {
		invalidator = appshared.NoopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookkeepingService{
		txScope:     txScope,
		invalidator: invalidator,
		logger:      logger,
	}
}

// RecordExpenseInput describes an operating expense
type RecordExpenseInput struct {
	ShopID      uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	Amount      decimal.Decimal
	Category    finance.ExpenseCategory
	Description string
}

// RecordExpense stores an expense and drops the shop's cached reports
func (s *BookkeepingService) RecordExpense(ctx context.Context, in RecordExpenseInput) (*finance.Expense, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bookkeeping", "record_expense")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, in.ShopID, telemetry.SpanAttrAmount, in.Amount)

	expense, err := finance.NewExpense(in.ShopID, in.UserID, in.Date.UTC(), in.Amount, in.Category, in.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.txScope.Repositories().Expenses().Save(ctx, expense); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.invalidate(ctx, in.ShopID)
	s.logger.Info("expense recorded",
		zap.String("shop_id", in.ShopID.String()),
		zap.String("expense_id", expense.ID.String()),
		zap.String("category", string(expense.Category)),
		zap.String("amount", expense.Amount.String()),
	)
	return expense, nil
}

// RecordAdjustmentInput describes a signed profit adjustment
type RecordAdjustmentInput struct {
	ShopID      uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	Amount      decimal.Decimal
	Type        finance.AdjustmentType
	Description string
}

// RecordAdjustment stores an adjustment and drops the shop's cached reports
func (s *BookkeepingService) RecordAdjustment(ctx context.Context, in RecordAdjustmentInput) (*finance.Adjustment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bookkeeping", "record_adjustment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, in.ShopID, telemetry.SpanAttrAmount, in.Amount)

	adjustment, err := finance.NewAdjustment(in.ShopID, in.UserID, in.Date.UTC(), in.Amount, in.Type, in.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.txScope.Repositories().Adjustments().Save(ctx, adjustment); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save adjustment: %w", err)
	}

	s.invalidate(ctx, in.ShopID)
	s.logger.Info("adjustment recorded",
		zap.String("shop_id", in.ShopID.String()),
		zap.String("adjustment_id", adjustment.ID.String()),
		zap.String("type", string(adjustment.Type)),
		zap.String("amount", adjustment.Amount.String()),
	)
	return adjustment, nil
}

func (s *BookkeepingService) invalidate(ctx context.Context, shopID uuid.UUID) {
	if err := s.invalidator.InvalidateShop(ctx, shopID); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("shop_id", shopID.String()), zap.Error(err))
	}
}
