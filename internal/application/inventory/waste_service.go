package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockSourceWaste labels stock rejections raised while writing off waste
const StockSourceWaste = "waste"

// WasteService writes off damaged or lost stock
type WasteService struct {
	txScope     appshared.TransactionScope
	invalidator appshared.ReportInvalidator
	recorder    appshared.BusinessRecorder
	logger      *zap.Logger
}

// Option configures WasteService
type Option func(*WasteService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *WasteService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReportInvalidator drops cached reports after waste changes
func WithReportInvalidator(invalidator appshared.ReportInvalidator) Option {
	return func(s *WasteService) {
		s.invalidator = invalidator
	}
}

// WithRecorder sets the business metrics recorder
func WithRecorder(recorder appshared.BusinessRecorder) Option {
	return func(s *WasteService) {
		s.recorder = recorder
	}
}

// NewWasteService creates a new WasteService
func NewWasteService(txScope appshared.TransactionScope, opts ...Option) *WasteService {
	s := &WasteService{
		txScope:     txScope,
		invalidator: appshared.NoopInvalidator{},
		recorder:    appshared.NoopRecorder{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordWasteInput describes stock to write off
type RecordWasteInput struct {
	ShopID    uuid.UUID
	UserID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int
	Reason    string
}

// RecordWaste removes qty units from stock and records their purchase value as a loss
func (s *WasteService) RecordWaste(ctx context.Context, in RecordWasteInput) (*inventory.WasteRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "record_waste")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, in.ShopID,
		telemetry.SpanAttrVariantID, in.VariantID,
		telemetry.SpanAttrQuantity, in.Quantity,
	)

	if in.Quantity <= 0 {
		err := shared.ErrInvalidInput.WithMessage("Waste quantity must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var record *inventory.WasteRecord
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		variant, err := repos.Variants().FindByIDForShop(ctx, in.ShopID, in.VariantID)
		if err != nil {
			return err
		}
		record, err = inventory.NewWasteRecord(variant, in.UserID, in.Quantity, in.Reason)
		if err != nil {
			return err
		}
		if err := repos.Variants().DecrementStock(ctx, in.ShopID, in.VariantID, in.Quantity); err != nil {
			return err
		}
		if err := repos.Waste().Save(ctx, record); err != nil {
			return fmt.Errorf("failed to save waste record: %w", err)
		}
		return appshared.RecomputeProductStock(ctx, repos, variant.ProductID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.recorder.RecordStockRejected(ctx, in.ShopID, StockSourceWaste)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidate(ctx, in.ShopID)
	s.recorder.RecordWaste(ctx, in.ShopID, record.WasteValue)
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, record.WasteValue)
	telemetry.SetOK(span)

	s.logger.Info("waste recorded",
		zap.String("shop_id", in.ShopID.String()),
		zap.String("waste_id", record.ID.String()),
		zap.String("variant_id", in.VariantID.String()),
		zap.Int("quantity", record.Quantity),
		zap.String("value", record.WasteValue.String()),
	)
	return record, nil
}

// CorrectWasteQuantity changes a recorded quantity. Only the difference to the
// old quantity is applied to stock, never the full amount.
func (s *WasteService) CorrectWasteQuantity(ctx context.Context, shopID, wasteID uuid.UUID, newQty int) (*inventory.WasteRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "correct_waste_quantity")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, "waste_id", wasteID, telemetry.SpanAttrQuantity, newQty)

	var (
		record *inventory.WasteRecord
		delta  int
	)
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		record, err = repos.Waste().FindByIDForUpdate(ctx, shopID, wasteID)
		if err != nil {
			return err
		}
		delta, err = record.CorrectQuantity(newQty)
		if err != nil {
			return err
		}

		switch {
		case delta == 0:
			return nil
		case delta > 0:
			err = repos.Variants().DecrementStock(ctx, shopID, record.VariantID, delta)
		default:
			err = repos.Variants().IncrementStock(ctx, shopID, record.VariantID, -delta)
		}
		if err != nil {
			return err
		}
		if err := repos.Waste().Save(ctx, record); err != nil {
			return fmt.Errorf("failed to save waste record: %w", err)
		}
		return appshared.RecomputeProductStock(ctx, repos, record.ProductID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.recorder.RecordStockRejected(ctx, shopID, StockSourceWaste)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if delta != 0 {
		s.invalidate(ctx, shopID)
		s.logger.Info("waste quantity corrected",
			zap.String("shop_id", shopID.String()),
			zap.String("waste_id", wasteID.String()),
			zap.Int("delta", delta),
			zap.String("value", record.WasteValue.String()),
		)
	}
	return record, nil
}

// GetWaste returns a waste record of the shop
func (s *WasteService) GetWaste(ctx context.Context, shopID, wasteID uuid.UUID) (*inventory.WasteRecord, error) {
	return s.txScope.Repositories().Waste().FindByIDForShop(ctx, shopID, wasteID)
}

func (s *WasteService) invalidate(ctx context.Context, shopID uuid.UUID) {
	if err := s.invalidator.InvalidateShop(ctx, shopID); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("shop_id", shopID.String()), zap.Error(err))
	}
}
