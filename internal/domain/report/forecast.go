package report

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

const (
	DefaultMonthsBack = 3
	DefaultTopN       = 10

	rollingWindow     = 7
	shortTrendWindow  = 7
	longTrendWindow   = 30
	maxTrend          = 0.5
	maxVolatility     = 0.2
	restockCapMonths  = 3
	minVisibleRestock = 3
	clearanceAfter    = 45

	NoteLowDemand   = "Low Demand"
	NoteOverstocked = "Overstocked"
	NoteClearance   = "Consider Clearance"
)

// ForecastParams controls a forecast run
type ForecastParams struct {
	MonthsBack int
	TopN       int
}

// Normalize applies defaults to zero values and rejects anything below 1
func (p ForecastParams) Normalize() (ForecastParams, error) {
	if p.MonthsBack == 0 {
		p.MonthsBack = DefaultMonthsBack
	}
	if p.TopN == 0 {
		p.TopN = DefaultTopN
	}
	if p.MonthsBack < 1 || p.TopN < 1 {
		return p, shared.ErrInvalidInput.WithMessage("months_back and top_n must be at least 1")
	}
	return p, nil
}

// Window is the lookback range ending at now
func (p ForecastParams) Window(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, -p.MonthsBack, 0), now
}

// VariantForecast is the demand outlook of one variant
type VariantForecast struct {
	VariantID          uuid.UUID `json:"variant_id"`
	ProductID          uuid.UUID `json:"product_id"`
	ProductName        string    `json:"product_name"`
	ColorName          string    `json:"color_name,omitempty"`
	SizeName           string    `json:"size_name,omitempty"`
	TotalSold          int       `json:"total_sold"`
	CurrentStock       int       `json:"current_stock"`
	DailyAvg           float64   `json:"daily_avg"`
	Last7Avg           float64   `json:"last_7_avg"`
	Last30Avg          float64   `json:"last_30_avg"`
	TrendFactor        float64   `json:"trend_factor"`
	PredictedNextMonth float64   `json:"predicted_next_month"`
	Volatility         float64   `json:"volatility"`
	SafetyBuffer       float64   `json:"safety_buffer"`
	AvgMonthlySold     float64   `json:"avg_monthly_sold"`
	SuggestedRestock   int       `json:"suggested_restock"`
	LastSoldAt         time.Time `json:"last_sold_at"`
	DaysSinceLastSale  int       `json:"days_since_last_sale"`
	Notes              []string  `json:"notes"`
}

// Forecast is the result of a forecast run
type Forecast struct {
	GeneratedAt time.Time         `json:"generated_at"`
	MonthsBack  int               `json:"months_back"`
	TopN        int               `json:"top_n"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	BestSelling []VariantForecast `json:"best_selling"`
	LowSelling  []VariantForecast `json:"low_selling"`
}

// BuildForecast computes per-variant demand from the sale lines of the window.
// Days are bucketed in loc.
func BuildForecast(sales []SaleLine, params ForecastParams, now time.Time, loc *time.Location) (*Forecast, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	start, end := params.Window(now)

	byVariant := make(map[uuid.UUID][]SaleLine)
	for _, s := range sales {
		byVariant[s.VariantID] = append(byVariant[s.VariantID], s)
	}

	today := midnight(now, loc)
	all := make([]VariantForecast, 0, len(byVariant))
	for _, lines := range byVariant {
		all = append(all, forecastVariant(lines, params.MonthsBack, today, loc))
	}

	best := make([]VariantForecast, len(all))
	copy(best, all)
	sort.Slice(best, func(i, j int) bool {
		if best[i].TotalSold != best[j].TotalSold {
			return best[i].TotalSold > best[j].TotalSold
		}
		return best[i].VariantID.String() < best[j].VariantID.String()
	})

	low := make([]VariantForecast, len(all))
	copy(low, all)
	sort.Slice(low, func(i, j int) bool {
		if low[i].TotalSold != low[j].TotalSold {
			return low[i].TotalSold < low[j].TotalSold
		}
		return low[i].VariantID.String() < low[j].VariantID.String()
	})

	if len(best) > params.TopN {
		best = best[:params.TopN]
	}
	if len(low) > params.TopN {
		low = low[:params.TopN]
	}

	return &Forecast{
		GeneratedAt: now,
		MonthsBack:  params.MonthsBack,
		TopN:        params.TopN,
		WindowStart: start,
		WindowEnd:   end,
		BestSelling: best,
		LowSelling:  low,
	}, nil
}

func forecastVariant(lines []SaleLine, monthsBack int, today time.Time, loc *time.Location) VariantForecast {
	daily := make(map[time.Time]int)
	var first, last time.Time
	var lastSold time.Time
	total := 0
	latest := lines[0]

	for _, l := range lines {
		day := midnight(l.SoldAt, loc)
		daily[day] += l.Quantity
		total += l.Quantity
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
		if l.SoldAt.After(lastSold) {
			lastSold = l.SoldAt
			latest = l
		}
	}

	// zero-filled series from first to last sale day
	series := make([]float64, 0)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series = append(series, float64(daily[d]))
	}

	means, stds := rollingStats(series, rollingWindow)
	last7 := mean(tail(means, shortTrendWindow))
	last30 := mean(tail(means, longTrendWindow))
	trend := clamp((last7-last30)/math.Max(1, last30), -maxTrend, maxTrend)

	dailyAvg := mean(series)
	predicted := dailyAvg * 30 * (1 + trend)
	volatility := clamp(meanDefined(stds)/math.Max(1, dailyAvg), 0, maxVolatility)
	safety := predicted * volatility
	avgMonthly := float64(total) / float64(monthsBack)

	restock := int(math.Ceil(clamp(predicted+safety-float64(latest.CurrentStock), 0, avgMonthly*restockCapMonths)))
	if restock < minVisibleRestock && total > 0 {
		restock = minVisibleRestock
	}

	daysSince := int(today.Sub(last).Hours() / 24)
	notes := make([]string, 0)
	if total < 10 {
		notes = append(notes, NoteLowDemand)
	}
	if float64(latest.CurrentStock) > avgMonthly*2 {
		notes = append(notes, NoteOverstocked)
	}
	if daysSince > clearanceAfter {
		notes = append(notes, NoteClearance)
	}

	return VariantForecast{
		VariantID:          latest.VariantID,
		ProductID:          latest.ProductID,
		ProductName:        latest.ProductName,
		ColorName:          latest.ColorName,
		SizeName:           latest.SizeName,
		TotalSold:          total,
		CurrentStock:       latest.CurrentStock,
		DailyAvg:           round2(dailyAvg),
		Last7Avg:           round2(last7),
		Last30Avg:          round2(last30),
		TrendFactor:        round2(trend),
		PredictedNextMonth: round2(predicted),
		Volatility:         round2(volatility),
		SafetyBuffer:       round2(safety),
		AvgMonthlySold:     round2(avgMonthly),
		SuggestedRestock:   restock,
		LastSoldAt:         lastSold,
		DaysSinceLastSale:  daysSince,
		Notes:              notes,
	}
}

// rollingStats returns the trailing-window mean and sample standard deviation
// for every position. A window of one sample has no defined deviation (NaN).
func rollingStats(series []float64, window int) ([]float64, []float64) {
	means := make([]float64, len(series))
	stds := make([]float64, len(series))
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		w := series[lo : i+1]
		m := mean(w)
		means[i] = m
		if len(w) < 2 {
			stds[i] = math.NaN()
			continue
		}
		var ss float64
		for _, v := range w {
			ss += (v - m) * (v - m)
		}
		stds[i] = math.Sqrt(ss / float64(len(w)-1))
	}
	return means, stds
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// meanDefined averages the non-NaN values, 0 if there are none
func meanDefined(xs []float64) float64 {
	var sum float64
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
