package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockSourceReduce labels stock rejections raised by ReduceStock
const StockSourceReduce = "reduce_stock"

// VariantService manages products, their variants and variant stock.
// Every variant change recomputes the product stock cache in the same transaction.
type VariantService struct {
	txScope     appshared.TransactionScope
	invalidator appshared.ReportInvalidator
	recorder    appshared.BusinessRecorder
	logger      *zap.Logger
}

// Option configures VariantService
type Option func(*VariantService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *VariantService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReportInvalidator drops cached reports after price or catalog changes
func WithReportInvalidator(invalidator appshared.ReportInvalidator) Option {
	return func(s *VariantService) {
		s.invalidator = invalidator
	}
}

// WithRecorder sets the business metrics recorder
func WithRecorder(recorder appshared.BusinessRecorder) Option {
	return func(s *VariantService) {
		s.recorder = recorder
	}
}

// NewVariantService creates a new VariantService
func NewVariantService(txScope appshared.TransactionScope, opts ...Option) *VariantService {
	s := &VariantService{
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

// ===================== Products =====================

// CreateProductInput describes a new product
type CreateProductInput struct {
	Name     string
	SKU      string
	Category string
	Brand    string
}

// ProductDetail is a product with its variants
type ProductDetail struct {
	Product  *catalog.Product
	Variants []catalog.ProductVariant
}

// CreateProduct creates a product without variants
func (s *VariantService) CreateProduct(ctx context.Context, shopID uuid.UUID, in CreateProductInput) (*catalog.Product, error) {
	product, err := catalog.NewProduct(shopID, in.Name, in.SKU)
	if err != nil {
		return nil, err
	}
	product.SetClassification(in.Category, in.Brand)

	if err := s.txScope.Repositories().Products().Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	s.logger.Info("product created",
		zap.String("shop_id", shopID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

// GetProduct loads a product and its variants
func (s *VariantService) GetProduct(ctx context.Context, shopID, productID uuid.UUID) (*ProductDetail, error) {
	repos := s.txScope.Repositories()
	product, err := repos.Products().FindByIDForShop(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}
	variants, err := repos.Variants().FindByProduct(ctx, shopID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	return &ProductDetail{Product: product, Variants: variants}, nil
}

// ===================== Variants =====================

// CreateVariantInput describes a new variant
type CreateVariantInput struct {
	Color           string
	Size            string
	Barcode         string
	Pricing         catalog.VariantPricing
	Stock           int
	SingleVariantID *uuid.UUID
}

// UpdateVariantInput replaces the descriptive and price fields of a variant.
// Stock is not part of an update; it changes only through sales, waste and ReduceStock.
type UpdateVariantInput struct {
	Color           string
	Size            string
	Barcode         string
	Pricing         catalog.VariantPricing
	SingleVariantID *uuid.UUID
}

// CreateVariant adds a variant to a product
func (s *VariantService) CreateVariant(ctx context.Context, shopID, productID uuid.UUID, in CreateVariantInput) (*catalog.ProductVariant, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_variant")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, telemetry.SpanAttrProductID, productID)

	var variant *catalog.ProductVariant
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForShop(ctx, shopID, productID)
		if err != nil {
			return err
		}
		variant, err = catalog.NewProductVariant(product, in.Color, in.Size, in.Pricing, in.Stock)
		if err != nil {
			return err
		}
		variant.Barcode = strings.TrimSpace(in.Barcode)
		if err := linkSingleVariant(ctx, repos, variant, in.SingleVariantID); err != nil {
			return err
		}
		if err := repos.Variants().Save(ctx, variant); err != nil {
			return fmt.Errorf("failed to save variant: %w", err)
		}
		return appshared.RecomputeProductStock(ctx, repos, productID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("variant created",
		zap.String("shop_id", shopID.String()),
		zap.String("product_id", productID.String()),
		zap.String("variant_id", variant.ID.String()),
		zap.Int("stock", variant.StockQuantity),
	)
	return variant, nil
}

// UpdateVariant changes names and prices of a variant
func (s *VariantService) UpdateVariant(ctx context.Context, shopID, variantID uuid.UUID, in UpdateVariantInput) (*catalog.ProductVariant, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "update_variant")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, telemetry.SpanAttrVariantID, variantID)

	var variant *catalog.ProductVariant
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		variant, err = repos.Variants().FindByIDForShop(ctx, shopID, variantID)
		if err != nil {
			return err
		}
		if err := variant.UpdatePricing(in.Pricing); err != nil {
			return err
		}
		variant.ColorName = strings.TrimSpace(in.Color)
		variant.SizeName = strings.TrimSpace(in.Size)
		variant.Barcode = strings.TrimSpace(in.Barcode)
		variant.SingleVariantID = nil
		if err := linkSingleVariant(ctx, repos, variant, in.SingleVariantID); err != nil {
			return err
		}
		if err := repos.Variants().Save(ctx, variant); err != nil {
			return fmt.Errorf("failed to save variant: %w", err)
		}
		return appshared.RecomputeProductStock(ctx, repos, variant.ProductID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// purchase price feeds COGS
	s.invalidate(ctx, shopID)
	s.logger.Info("variant updated",
		zap.String("shop_id", shopID.String()),
		zap.String("variant_id", variantID.String()),
	)
	return variant, nil
}

// DeleteVariant removes a variant. Past sales keep their snapshots.
func (s *VariantService) DeleteVariant(ctx context.Context, shopID, variantID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "delete_variant")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, telemetry.SpanAttrVariantID, variantID)

	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		variant, err := repos.Variants().FindByIDForShop(ctx, shopID, variantID)
		if err != nil {
			return err
		}
		if err := repos.Variants().Delete(ctx, shopID, variantID); err != nil {
			return err
		}
		return appshared.RecomputeProductStock(ctx, repos, variant.ProductID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.invalidate(ctx, shopID)
	s.logger.Info("variant deleted",
		zap.String("shop_id", shopID.String()),
		zap.String("variant_id", variantID.String()),
	)
	return nil
}

// GetVariant returns a variant of the shop
func (s *VariantService) GetVariant(ctx context.Context, shopID, variantID uuid.UUID) (*catalog.ProductVariant, error) {
	return s.txScope.Repositories().Variants().FindByIDForShop(ctx, shopID, variantID)
}

// ReduceStock removes qty units from a variant with the conditional decrement
func (s *VariantService) ReduceStock(ctx context.Context, shopID, variantID uuid.UUID, qty int) (*catalog.ProductVariant, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "reduce_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, shopID,
		telemetry.SpanAttrVariantID, variantID,
		telemetry.SpanAttrQuantity, qty,
	)

	if qty <= 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}

	var variant *catalog.ProductVariant
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if err := repos.Variants().DecrementStock(ctx, shopID, variantID, qty); err != nil {
			return err
		}
		var err error
		variant, err = repos.Variants().FindByIDForShop(ctx, shopID, variantID)
		if err != nil {
			return err
		}
		return appshared.RecomputeProductStock(ctx, repos, variant.ProductID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.recorder.RecordStockRejected(ctx, shopID, StockSourceReduce)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("stock reduced",
		zap.String("shop_id", shopID.String()),
		zap.String("variant_id", variantID.String()),
		zap.Int("quantity", qty),
		zap.Int("stock", variant.StockQuantity),
	)
	return variant, nil
}

// QuotePrice prices qty units of a variant without touching stock
func (s *VariantService) QuotePrice(ctx context.Context, shopID, variantID uuid.UUID, qty int) (catalog.LinePrice, error) {
	variant, err := s.GetVariant(ctx, shopID, variantID)
	if err != nil {
		return catalog.LinePrice{}, err
	}
	return variant.PriceFor(qty)
}

// linkSingleVariant links a pack variant to its single-unit sibling of the same product
func linkSingleVariant(ctx context.Context, repos appshared.TransactionalRepositories, variant *catalog.ProductVariant, siblingID *uuid.UUID) error {
	if siblingID == nil {
		return nil
	}
	if *siblingID == variant.ID {
		return shared.ErrInvalidInput.WithMessage("A variant cannot be its own single-unit variant")
	}
	sibling, err := repos.Variants().FindByIDForShop(ctx, variant.ShopID, *siblingID)
	if err != nil {
		return err
	}
	if sibling.ProductID != variant.ProductID {
		return shared.ErrInvalidInput.WithMessage("Single-unit variant belongs to another product")
	}
	variant.LinkSingleVariant(sibling.ID)
	return nil
}

func (s *VariantService) invalidate(ctx context.Context, shopID uuid.UUID) {
	if err := s.invalidator.InvalidateShop(ctx, shopID); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("shop_id", shopID.String()), zap.Error(err))
	}
}
