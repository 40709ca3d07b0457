package pricing

import "math"

// SuggestionStatus tells whether a suggested price could be solved.
type SuggestionStatus string

const (
	SuggestionOK           SuggestionStatus = "ok"
	SuggestionUnachievable SuggestionStatus = "unachievable"
	SuggestionNoData       SuggestionStatus = "no_data"
)

// Comparison places a suggested price relative to a competitor price.
type Comparison string

const (
	CompareNone   Comparison = "none"
	CompareParity Comparison = "parity"
	CompareBelow  Comparison = "below"
	CompareAbove  Comparison = "above"
)

// parityBandPct is the relative difference still treated as the same price.
const parityBandPct = 3.0

// Suggestion is the reverse-solved unit price for a target margin.
type Suggestion struct {
	Status          SuggestionStatus `json:"status"`
	BaseCostPerUnit float64          `json:"baseCostPerUnit"`
	CommissionRate  float64          `json:"commissionRate"`
	Price           float64          `json:"price"`
	UnitProfit      float64          `json:"unitProfit"`
	MarginPct       float64          `json:"marginPct"`

	Comparison    Comparison `json:"comparison"`
	CompetitorPct float64    `json:"competitorPct"`
}

// SuggestPrice solves price = baseCost / (1 - commissionRate - target/100)
// where baseCost is the average all-in cost of one unit in r. A target that
// leaves no room after commission yields SuggestionUnachievable, not an error.
// A competitorPrice of 0 skips the comparison.
func SuggestPrice(r AggregateResult, targetMarginPct, competitorPrice float64) Suggestion {
	s := Suggestion{Status: SuggestionNoData, Comparison: CompareNone}
	if r.TotalItems == 0 || r.Revenue == 0 {
		return s
	}

	avg := r.Averages
	s.BaseCostPerUnit = avg.Cost + avg.Freight + avg.Travel + avg.Packaging + avg.Overhead
	s.CommissionRate = r.CommissionRate

	denominator := 1 - s.CommissionRate - nonNegative(targetMarginPct)/100
	if denominator <= 0 || s.BaseCostPerUnit <= 0 {
		s.Status = SuggestionUnachievable
		return s
	}

	s.Status = SuggestionOK
	s.Price = s.BaseCostPerUnit / denominator
	s.UnitProfit = s.Price*(1-s.CommissionRate) - s.BaseCostPerUnit
	s.MarginPct = safeDiv(s.UnitProfit, s.Price) * 100

	if competitorPrice > 0 {
		s.CompetitorPct = (s.Price - competitorPrice) / competitorPrice * 100
		switch {
		case math.Abs(s.CompetitorPct) < parityBandPct:
			s.Comparison = CompareParity
		case s.CompetitorPct < 0:
			s.Comparison = CompareBelow
		default:
			s.Comparison = CompareAbove
		}
	}
	return s
}
