package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Highlights are headline figures derived from the two reports
type Highlights struct {
	ProfitMarginPct decimal.Decimal `json:"profit_margin_pct"`
	NetMarginPct    decimal.Decimal `json:"net_margin_pct"`
	TopProduct      string          `json:"top_product,omitempty"`
	RestockAlerts   int             `json:"restock_alerts"`
	ClearanceAlerts int             `json:"clearance_alerts"`
}

// ShopReport merges the P&L and the forecast for one shop and range
type ShopReport struct {
	ShopID      uuid.UUID  `json:"shop_id"`
	Range       DateRange  `json:"range"`
	GeneratedAt time.Time  `json:"generated_at"`
	ProfitLoss  *PLReport  `json:"profit_loss"`
	Forecast    *Forecast  `json:"forecast"`
	Highlights  Highlights `json:"highlights"`
}

// Compose builds the shop report. It performs no I/O.
func Compose(shopID uuid.UUID, rng DateRange, pl *PLReport, fc *Forecast, generatedAt time.Time) *ShopReport {
	out := &ShopReport{
		ShopID:      shopID,
		Range:       rng,
		GeneratedAt: generatedAt,
		ProfitLoss:  pl,
		Forecast:    fc,
	}

	if pl != nil {
		if pl.Totals.Revenue.IsPositive() {
			hundred := decimal.NewFromInt(100)
			out.Highlights.ProfitMarginPct = pl.Totals.GrossProfit.Mul(hundred).DivRound(pl.Totals.Revenue, 2)
			out.Highlights.NetMarginPct = pl.Totals.NetProfit.Mul(hundred).DivRound(pl.Totals.Revenue, 2)
		}
		if len(pl.BestSellers) > 0 {
			out.Highlights.TopProduct = pl.BestSellers[0].ProductName
		}
	}

	if fc != nil {
		seen := make(map[uuid.UUID]struct{})
		for _, list := range [][]VariantForecast{fc.BestSelling, fc.LowSelling} {
			for _, v := range list {
				if _, ok := seen[v.VariantID]; ok {
					continue
				}
				seen[v.VariantID] = struct{}{}
				if v.SuggestedRestock > 0 && float64(v.CurrentStock) < v.PredictedNextMonth {
					out.Highlights.RestockAlerts++
				}
				for _, n := range v.Notes {
					if n == NoteClearance {
						out.Highlights.ClearanceAlerts++
					}
				}
			}
		}
	}

	return out
}
