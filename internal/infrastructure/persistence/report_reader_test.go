package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReportReader(t *testing.T) {
	db := newTestDB(t)
	reader := NewGormReportReader(db)
	orders := NewGormOrderRepository(db)
	ctx := context.Background()
	shopID := uuid.New()
	userID := uuid.New()
	product, variant := seedVariant(t, db, shopID, 40)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	inRange := newPricedOrder(t, shopID, "ORD-IN", product, variant, 8)
	inRange.CreatedAt = from.Add(36 * time.Hour)
	require.NoError(t, orders.Create(ctx, inRange))

	atEnd := newPricedOrder(t, shopID, "ORD-END", product, variant, 2)
	atEnd.CreatedAt = to
	require.NoError(t, orders.Create(ctx, atEnd))

	otherShop := newPricedOrder(t, uuid.New(), "ORD-OTHER", product, variant, 3)
	otherShop.CreatedAt = from.Add(time.Hour)
	require.NoError(t, orders.Create(ctx, otherShop))

	waste, err := inventory.NewWasteRecord(variant, userID, 3, "torn")
	require.NoError(t, err)
	waste.RecordedAt = from.Add(48 * time.Hour)
	require.NoError(t, NewGormWasteRepository(db).Save(ctx, waste))

	expense, err := finance.NewExpense(shopID, userID, from.Add(24*time.Hour), dec("100"), finance.ExpenseCategoryRent, "")
	require.NoError(t, err)
	require.NoError(t, NewGormExpenseRepository(db).Save(ctx, expense))

	for _, amount := range []string{"20", "-5"} {
		a, err := finance.NewAdjustment(shopID, userID, from.Add(24*time.Hour), dec(amount), finance.AdjustmentTypeCorrection, "")
		require.NoError(t, err)
		require.NoError(t, NewGormAdjustmentRepository(db).Save(ctx, a))
	}

	t.Run("sale lines join the current variant state", func(t *testing.T) {
		lines, err := reader.SaleLines(ctx, shopID, from, to)
		require.NoError(t, err)
		require.Len(t, lines, 1, "range end is exclusive and other shops are excluded")

		line := lines[0]
		assert.Equal(t, product.ID, line.ProductID)
		assert.Equal(t, variant.ID, line.VariantID)
		assert.Equal(t, "Oxford Shirt", line.ProductName)
		assert.Equal(t, "OX-1", line.SKU)
		assert.Equal(t, "Shirts", line.CategoryName)
		assert.Equal(t, 8, line.Quantity)
		assert.True(t, line.LineTotal.Equal(dec("74")))
		assert.True(t, line.CurrentPurchasePrice.Equal(dec("4")))
		assert.Equal(t, 40, line.CurrentStock)
		assert.True(t, line.SoldAt.Equal(inRange.CreatedAt))
	})

	t.Run("waste lines carry the snapshot value", func(t *testing.T) {
		lines, err := reader.WasteLines(ctx, shopID, from, to)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, waste.ID, lines[0].WasteID)
		assert.Equal(t, 3, lines[0].Quantity)
		assert.True(t, lines[0].WasteValue.Equal(dec("12")))
		assert.Equal(t, "torn", lines[0].Reason)
		assert.Equal(t, "Oxford Shirt", lines[0].ProductName)
	})

	t.Run("totals", func(t *testing.T) {
		expenses, err := reader.ExpenseTotal(ctx, shopID, from, to)
		require.NoError(t, err)
		assert.True(t, expenses.Equal(dec("100")))

		adjustments, err := reader.AdjustmentTotal(ctx, shopID, from, to)
		require.NoError(t, err)
		assert.True(t, adjustments.Equal(dec("15")))

		empty, err := reader.ExpenseTotal(ctx, shopID, to, to.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.True(t, empty.IsZero())
	})
}
