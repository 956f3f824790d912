package catalog

import (
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LinePrice is the resolved price for selling a quantity of one variant
type LinePrice struct {
	Quantity  int
	NumPacks  int
	Leftover  int
	Revenue   decimal.Decimal
	UnitPrice decimal.Decimal
}

// PriceFor resolves the line total for qty units.
// Pack variants sell whole packs at the pack price and the leftover units at the single price.
func (v *ProductVariant) PriceFor(qty int) (LinePrice, error) {
	if qty <= 0 {
		return LinePrice{}, shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}

	lp := LinePrice{Quantity: qty, Leftover: qty}
	if v.IsPack && v.UnitsPerPack >= 1 {
		lp.NumPacks = qty / v.UnitsPerPack
		lp.Leftover = qty % v.UnitsPerPack
	}

	lp.Revenue = v.PackSalePrice.Mul(decimal.NewFromInt(int64(lp.NumPacks))).
		Add(v.SingleSalePrice.Mul(decimal.NewFromInt(int64(lp.Leftover))))
	lp.UnitPrice = lp.Revenue.DivRound(decimal.NewFromInt(int64(qty)), 4)
	return lp, nil
}
