package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerListSize is the length of the best and worst seller lists
const SellerListSize = 10

// ComparisonMonths is the number of months in the trailing comparison
const ComparisonMonths = 6

// SaleLine is one sold order line joined with the variant's current state.
// LineTotal is the pack-resolved total snapshotted at sale time.
type SaleLine struct {
	OrderID              uuid.UUID
	ProductID            uuid.UUID
	VariantID            uuid.UUID
	ProductName          string
	SKU                  string
	CategoryName         string
	ColorName            string
	SizeName             string
	Quantity             int
	LineTotal            decimal.Decimal
	CurrentPurchasePrice decimal.Decimal
	CurrentStock         int
	SoldAt               time.Time
}

// COGS is cost of goods at the variant's current purchase price
func (l SaleLine) COGS() decimal.Decimal {
	return l.CurrentPurchasePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// WasteLine is one waste record joined with its product
type WasteLine struct {
	WasteID           uuid.UUID
	ProductID         uuid.UUID
	VariantID         uuid.UUID
	ProductName       string
	SKU               string
	CategoryName      string
	ColorName         string
	SizeName          string
	Quantity          int
	UnitPurchasePrice decimal.Decimal
	WasteValue        decimal.Decimal
	Reason            string
	RecordedAt        time.Time
}

// PLInput is everything the aggregator needs, already loaded
type PLInput struct {
	Range            DateRange
	Sales            []SaleLine
	Waste            []WasteLine
	TotalExpenses    decimal.Decimal
	TotalAdjustments decimal.Decimal
	// sales and waste covering the trailing comparison months
	ComparisonSales []SaleLine
	ComparisonWaste []WasteLine
}

// ProductPL is the per-product line of the report
type ProductPL struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SKU           string          `json:"sku,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	Sold          int             `json:"sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	COGS          decimal.Decimal `json:"cogs"`
	WasteQty      int             `json:"waste_qty"`
	WasteLoss     decimal.Decimal `json:"waste_loss"`
	UnitSalePrice decimal.Decimal `json:"unit_sale_price"`
	UnitCOGS      decimal.Decimal `json:"unit_cogs"`
	Profit        decimal.Decimal `json:"profit"`
}

// PLTotals are the reconciled report totals
type PLTotals struct {
	Revenue     decimal.Decimal `json:"total_revenue"`
	COGS        decimal.Decimal `json:"total_cogs"`
	WasteLoss   decimal.Decimal `json:"total_waste_loss"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Expenses    decimal.Decimal `json:"total_expenses"`
	Adjustments decimal.Decimal `json:"total_adjustments"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	ItemsSold   int             `json:"items_sold"`
	WasteQty    int             `json:"waste_qty"`
	OrderCount  int             `json:"order_count"`
}

// Seller is an entry of the best/worst seller lists
type Seller struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// MonthlyPL is one month of the trailing comparison. NetProfit equals
// GrossProfit: expenses and adjustments are not spread over months.
type MonthlyPL struct {
	Label       string          `json:"label"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Revenue     decimal.Decimal `json:"revenue"`
	COGS        decimal.Decimal `json:"cogs"`
	WasteLoss   decimal.Decimal `json:"waste_loss"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

// WasteDetail is a row of the waste listing
type WasteDetail struct {
	Date         time.Time       `json:"date"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	ColorName    string          `json:"color_name,omitempty"`
	SizeName     string          `json:"size_name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Loss         decimal.Decimal `json:"loss"`
	Reason       string          `json:"reason,omitempty"`
}

// PLReport is the profit-and-loss report of a date range
type PLReport struct {
	Range        DateRange     `json:"range"`
	Totals       PLTotals      `json:"totals"`
	Products     []ProductPL   `json:"products"`
	BestSellers  []Seller      `json:"best_sellers"`
	WorstSellers []Seller      `json:"worst_sellers"`
	Monthly      []MonthlyPL   `json:"monthly_comparison"`
	WasteDetails []WasteDetail `json:"waste_details"`
}

// BuildProfitLoss aggregates in into a report. It is deterministic: the same
// input always yields the same report, including list order.
func BuildProfitLoss(in PLInput) *PLReport {
	rows := make(map[uuid.UUID]*ProductPL)
	row := func(id uuid.UUID, name, sku, category string) *ProductPL {
		r, ok := rows[id]
		if !ok {
			r = &ProductPL{ProductID: id, ProductName: name, SKU: sku, CategoryName: category}
			rows[id] = r
		}
		return r
	}

	totals := PLTotals{
		Expenses:    in.TotalExpenses,
		Adjustments: in.TotalAdjustments,
	}
	orders := make(map[uuid.UUID]struct{})

	for _, s := range in.Sales {
		r := row(s.ProductID, s.ProductName, s.SKU, s.CategoryName)
		r.Sold += s.Quantity
		r.Revenue = r.Revenue.Add(s.LineTotal)
		r.COGS = r.COGS.Add(s.COGS())
		orders[s.OrderID] = struct{}{}
	}

	details := make([]WasteDetail, 0, len(in.Waste))
	for _, w := range in.Waste {
		r := row(w.ProductID, w.ProductName, w.SKU, w.CategoryName)
		r.WasteQty += w.Quantity
		r.WasteLoss = r.WasteLoss.Add(w.WasteValue)
		details = append(details, WasteDetail{
			Date:         w.RecordedAt,
			ProductName:  w.ProductName,
			SKU:          w.SKU,
			CategoryName: w.CategoryName,
			ColorName:    w.ColorName,
			SizeName:     w.SizeName,
			Quantity:     w.Quantity,
			UnitPrice:    w.UnitPurchasePrice,
			Loss:         w.WasteValue,
			Reason:       w.Reason,
		})
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Date.Before(details[j].Date)
	})

	products := make([]ProductPL, 0, len(rows))
	for _, r := range rows {
		r.Profit = r.Revenue.Sub(r.COGS.Add(r.WasteLoss))
		if r.Sold > 0 {
			qty := decimal.NewFromInt(int64(r.Sold))
			r.UnitSalePrice = r.Revenue.DivRound(qty, 2)
			r.UnitCOGS = r.COGS.DivRound(qty, 2)
		}
		products = append(products, *r)
	}
	sort.Slice(products, func(i, j int) bool {
		return lessByName(products[i].ProductName, products[i].ProductID, products[j].ProductName, products[j].ProductID)
	})

	for _, p := range products {
		totals.Revenue = totals.Revenue.Add(p.Revenue)
		totals.COGS = totals.COGS.Add(p.COGS)
		totals.WasteLoss = totals.WasteLoss.Add(p.WasteLoss)
		totals.ItemsSold += p.Sold
		totals.WasteQty += p.WasteQty
	}

	totals.OrderCount = len(orders)
	totals.GrossProfit = totals.Revenue.Sub(totals.COGS).Sub(totals.WasteLoss)
	totals.NetProfit = totals.GrossProfit.Sub(totals.Expenses).Add(totals.Adjustments)

	best, worst := rankSellers(products)

	return &PLReport{
		Range:        in.Range,
		Totals:       totals,
		Products:     products,
		BestSellers:  best,
		WorstSellers: worst,
		Monthly:      monthlyComparison(in.Range, in.ComparisonSales, in.ComparisonWaste),
		WasteDetails: details,
	}
}

func lessByName(aName string, aID uuid.UUID, bName string, bID uuid.UUID) bool {
	if aName != bName {
		return aName < bName
	}
	return aID.String() < bID.String()
}

// rankSellers builds the top lists from products that actually sold.
// products must already be in name order so ties resolve by name.
func rankSellers(products []ProductPL) (best, worst []Seller) {
	sold := make([]Seller, 0, len(products))
	for _, p := range products {
		if p.Sold > 0 {
			sold = append(sold, Seller{ProductID: p.ProductID, ProductName: p.ProductName, Sold: p.Sold, Revenue: p.Revenue})
		}
	}

	best = make([]Seller, len(sold))
	copy(best, sold)
	sort.SliceStable(best, func(i, j int) bool { return best[i].Sold > best[j].Sold })

	worst = make([]Seller, len(sold))
	copy(worst, sold)
	sort.SliceStable(worst, func(i, j int) bool { return worst[i].Sold < worst[j].Sold })

	if len(best) > SellerListSize {
		best = best[:SellerListSize]
	}
	if len(worst) > SellerListSize {
		worst = worst[:SellerListSize]
	}
	return best, worst
}

func monthlyComparison(rng DateRange, sales []SaleLine, waste []WasteLine) []MonthlyPL {
	buckets := TrailingMonths(rng.End, ComparisonMonths)
	months := make([]MonthlyPL, len(buckets))
	for i, b := range buckets {
		months[i] = MonthlyPL{Label: b.Label(), Year: b.Year, Month: int(b.Month)}
	}

	find := func(t time.Time) int {
		for i, b := range buckets {
			if b.Contains(t) {
				return i
			}
		}
		return -1
	}

	for _, s := range sales {
		if i := find(s.SoldAt); i >= 0 {
			months[i].Revenue = months[i].Revenue.Add(s.LineTotal)
			months[i].COGS = months[i].COGS.Add(s.COGS())
		}
	}
	for _, w := range waste {
		if i := find(w.RecordedAt); i >= 0 {
			months[i].WasteLoss = months[i].WasteLoss.Add(w.WasteValue)
		}
	}
	for i := range months {
		months[i].GrossProfit = months[i].Revenue.Sub(months[i].COGS).Sub(months[i].WasteLoss)
		months[i].NetProfit = months[i].GrossProfit
	}
	return months
}

// ComparisonWindow is the span the trailing comparison needs loaded
func ComparisonWindow(rng DateRange) (time.Time, time.Time) {
	buckets := TrailingMonths(rng.End, ComparisonMonths)
	return buckets[0].Start, buckets[len(buckets)-1].End
}
