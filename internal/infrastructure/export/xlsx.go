// Package export renders composed reports into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retailpos/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the shop report workbook, in order
const (
	SheetSummary  = "Summary"
	SheetProducts = "Products"
	SheetWaste    = "Waste"
	SheetMonthly  = "Monthly"
	SheetForecast = "Forecast"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXRenderer writes a shop report as an Excel workbook
type XLSXRenderer struct{}

// NewXLSXRenderer creates a new XLSXRenderer
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

// ContentType is the MIME type of the rendered document
func (XLSXRenderer) ContentType() string {
	return xlsxContentType
}

// Extension is the file extension of the rendered document
func (XLSXRenderer) Extension() string {
	return "xlsx"
}

// Render builds the workbook in memory
func (XLSXRenderer) Render(r *report.ShopReport) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil report")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	w := &workbook{f: f}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetProducts, SheetWaste, SheetMonthly, SheetForecast} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	if w.header, w.err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); w.err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", w.err)
	}

	w.summary(r)
	if pl := r.ProfitLoss; pl != nil {
		w.products(pl.Products)
		w.waste(pl.WasteDetails)
		w.monthly(pl.Monthly)
	}
	if r.Forecast != nil {
		w.forecast(r.Forecast)
	}
	if w.err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", w.err)
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// workbook keeps the first error so sheet writers can stay linear
type workbook struct {
	f      *excelize.File
	header int
	err    error
}

func (w *workbook) row(sheet string, n int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) headings(sheet string, titles ...interface{}) {
	w.row(sheet, 1, titles...)
	if w.err != nil {
		return
	}
	w.err = w.f.SetRowStyle(sheet, 1, 1, w.header)
}

func (w *workbook) summary(r *report.ShopReport) {
	w.headings(SheetSummary, "Metric", "Value")
	rows := [][]interface{}{
		{"Shop", r.ShopID.String()},
		{"Start date", r.Range.Start.Format(report.DateLayout)},
		{"End date", r.Range.End.Format(report.DateLayout)},
		{"Generated at", r.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	if pl := r.ProfitLoss; pl != nil {
		t := pl.Totals
		rows = append(rows,
			[]interface{}{"Revenue", money(t.Revenue)},
			[]interface{}{"COGS", money(t.COGS)},
			[]interface{}{"Waste loss", money(t.WasteLoss)},
			[]interface{}{"Gross profit", money(t.GrossProfit)},
			[]interface{}{"Expenses", money(t.Expenses)},
			[]interface{}{"Adjustments", money(t.Adjustments)},
			[]interface{}{"Net profit", money(t.NetProfit)},
			[]interface{}{"Orders", t.OrderCount},
			[]interface{}{"Items sold", t.ItemsSold},
		)
	}
	h := r.Highlights
	rows = append(rows,
		[]interface{}{"Profit margin %", money(h.ProfitMarginPct)},
		[]interface{}{"Net margin %", money(h.NetMarginPct)},
		[]interface{}{"Top product", h.TopProduct},
		[]interface{}{"Restock alerts", h.RestockAlerts},
		[]interface{}{"Clearance alerts", h.ClearanceAlerts},
	)
	for i, values := range rows {
		w.row(SheetSummary, i+2, values...)
	}
}

func (w *workbook) products(products []report.ProductPL) {
	w.headings(SheetProducts, "Product", "SKU", "Category", "Sold", "Revenue", "COGS",
		"Waste qty", "Waste loss", "Unit sale price", "Unit COGS", "Profit")
	for i, p := range products {
		w.row(SheetProducts, i+2, p.ProductName, p.SKU, p.CategoryName, p.Sold,
			money(p.Revenue), money(p.COGS), p.WasteQty, money(p.WasteLoss),
			money(p.UnitSalePrice), money(p.UnitCOGS), money(p.Profit))
	}
}

func (w *workbook) waste(details []report.WasteDetail) {
	w.headings(SheetWaste, "Date", "Product", "Variant", "SKU", "Category", "Quantity",
		"Unit price", "Loss", "Reason")
	for i, d := range details {
		w.row(SheetWaste, i+2, d.Date.Format(report.DateLayout), d.ProductName,
			variantLabel(d.ColorName, d.SizeName), d.SKU, d.CategoryName, d.Quantity,
			money(d.UnitPrice), money(d.Loss), d.Reason)
	}
}

func (w *workbook) monthly(months []report.MonthlyPL) {
	w.headings(SheetMonthly, "Month", "Revenue", "COGS", "Waste loss", "Gross profit", "Net profit")
	for i, m := range months {
		w.row(SheetMonthly, i+2, m.Label, money(m.Revenue), money(m.COGS),
			money(m.WasteLoss), money(m.GrossProfit), money(m.NetProfit))
	}
}

func (w *workbook) forecast(fc *report.Forecast) {
	w.headings(SheetForecast, "List", "Product", "Variant", "Total sold", "Current stock",
		"Daily avg", "Trend", "Predicted next month", "Suggested restock", "Days since last sale", "Notes")
	n := 2
	for _, list := range []struct {
		name  string
		items []report.VariantForecast
	}{
		{"Best selling", fc.BestSelling},
		{"Low selling", fc.LowSelling},
	} {
		for _, v := range list.items {
			w.row(SheetForecast, n, list.name, v.ProductName, variantLabel(v.ColorName, v.SizeName),
				v.TotalSold, v.CurrentStock, v.DailyAvg, v.TrendFactor, v.PredictedNextMonth,
				v.SuggestedRestock, v.DaysSinceLastSale, strings.Join(v.Notes, ", "))
			n++
		}
	}
}

// money keeps two decimals; spreadsheets only hold floats
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func variantLabel(color, size string) string {
	switch {
	case color != "" && size != "":
		return color + " / " + size
	case color != "":
		return color
	default:
		return size
	}
}
