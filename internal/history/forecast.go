package history

import (
	"math"
	"slices"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

const (
	// MinForecastSales is the history size below which no forecast is made.
	MinForecastSales = 4
	forecastWeeks    = 3
	weeklyWindow     = 8
	week             = 7 * 24 * time.Hour
)

// WeeklyUnits buckets units sold into fixed seven-day windows counted from the
// Unix epoch and returns the totals of the last eight non-empty windows,
// oldest first.
func WeeklyUnits(sales []storage.Sale) []int {
	buckets := make(map[int64]int)
	for _, s := range sales {
		buckets[weekIndex(s.Timestamp)] += s.Quantity
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) > weeklyWindow {
		keys = keys[len(keys)-weeklyWindow:]
	}

	units := make([]int, len(keys))
	for i, k := range keys {
		units[i] = buckets[k]
	}
	return units
}

// weekIndex is the seven-day window holding t, floored so instants before the
// epoch fall in negative windows.
func weekIndex(t time.Time) int64 {
	secs, size := t.Unix(), int64(week.Seconds())
	k := secs / size
	if secs%size < 0 {
		k--
	}
	return k
}

// Trend is the percent change between the first and the last weekly total.
// It is 0 with fewer than two weeks or when the first week sold nothing.
func Trend(weekly []int) float64 {
	if len(weekly) < 2 || weekly[0] <= 0 {
		return 0
	}
	first := float64(weekly[0])
	last := float64(weekly[len(weekly)-1])
	return (last - first) / first * 100
}

// StockRisk classifies how long the current stock lasts.
type StockRisk string

const (
	RiskNone     StockRisk = "none"
	RiskCritical StockRisk = "critical"
	RiskWarning  StockRisk = "warning"
	RiskOK       StockRisk = "ok"
)

// Forecast projects unit sales for the next weeks.
type Forecast struct {
	Available    bool      `json:"available"`
	SalesCount   int       `json:"salesCount"`
	Weekly       []int     `json:"weekly"`
	AverageUnits float64   `json:"averageUnits"`
	TrendPct     float64   `json:"trendPct"`
	Projected    []int     `json:"projected"`
	StockUnits   int       `json:"stockUnits"`
	WeeksOfStock float64   `json:"weeksOfStock"`
	StockRisk    StockRisk `json:"stockRisk"`
}

// NewForecast projects the next three weeks as the weekly average scaled
// linearly by the trend, then estimates how many weeks stockUnits covers at
// the first projected week. When nothing is projected to sell WeeksOfStock
// stays 0 and the risk is RiskNone.
func NewForecast(sales []storage.Sale, stockUnits int) Forecast {
	f := Forecast{SalesCount: len(sales), StockUnits: stockUnits, StockRisk: RiskNone}
	if len(sales) < MinForecastSales {
		return f
	}
	f.Available = true
	f.Weekly = WeeklyUnits(sales)
	f.TrendPct = Trend(f.Weekly)

	var sum int
	for _, u := range f.Weekly {
		sum += u
	}
	f.AverageUnits = float64(sum) / float64(len(f.Weekly))

	f.Projected = make([]int, forecastWeeks)
	for i := range f.Projected {
		factor := 1 + f.TrendPct/100*float64(i+1)
		f.Projected[i] = int(math.Floor(f.AverageUnits*factor + 0.5))
	}

	switch next := f.Projected[0]; {
	case next <= 0:
		f.StockRisk = RiskNone
	default:
		f.WeeksOfStock = math.Round(float64(stockUnits)/float64(next)*10) / 10
		switch {
		case f.WeeksOfStock < 2:
			f.StockRisk = RiskCritical
		case f.WeeksOfStock < 3:
			f.StockRisk = RiskWarning
		default:
			f.StockRisk = RiskOK
		}
	}
	return f
}
