package pricing

import (
	"slices"
	"testing"
)

func singleItemResult() AggregateResult {
	return Recompute([]LineItem{{
		ClientID: "Cliente 1", UnitPrice: 199.90, UnitWeightGrams: 800, Quantity: 1, UnitCost: 100,
	}}, DefaultCostConfig())
}

func TestSimulatePriceChange(t *testing.T) {
	got := SimulatePriceChange(Baseline{AvgPrice: 100, AvgCost: 60}, 10)

	nearlyEqual(t, "price", got.Price, 110)
	nearlyEqual(t, "profit", got.Profit, 50)
	nearlyEqual(t, "margin", got.MarginPct, 50.0/110*100)
}

func TestSimulatePriceChange_ZeroPrice(t *testing.T) {
	got := SimulatePriceChange(Baseline{AvgPrice: 100, AvgCost: 60}, -100)
	if got.MarginPct != 0 {
		t.Fatalf("margin = %v, want 0", got.MarginPct)
	}
}

func TestSimulateCostChange(t *testing.T) {
	got := SimulateCostChange(Baseline{AvgPrice: 100, AvgCost: 60}, 10)

	nearlyEqual(t, "cost", got.Cost, 54)
	nearlyEqual(t, "profit", got.Profit, 46)
	nearlyEqual(t, "margin", got.MarginPct, 46)

	empty := SimulateCostChange(Baseline{}, 10)
	if empty.MarginPct != 0 {
		t.Fatalf("margin = %v, want 0", empty.MarginPct)
	}
}

func TestSimulateAdTypeChange(t *testing.T) {
	base := BaselineFrom(singleItemResult())
	got := SimulateAdTypeChange(base, AdPremium, DefaultCostConfig())

	nearlyEqual(t, "commission", got.Commission, 199.90*0.19)
	nearlyEqual(t, "profit", got.Profit, 199.90-100-199.90*0.19-5.50-1.00)
	nearlyEqual(t, "margin", got.MarginPct, got.Profit/199.90*100)
}

func TestSuggestPrice_SolvesTargetMargin(t *testing.T) {
	got := SuggestPrice(singleItemResult(), 30, 0)

	if got.Status != SuggestionOK {
		t.Fatalf("status = %s, want ok", got.Status)
	}
	base := 100 + 13.47 + 1.80 + 5.50
	nearlyEqual(t, "base", got.BaseCostPerUnit, base)
	nearlyEqual(t, "price", got.Price, base/(1-0.14-0.30))
	nearlyEqual(t, "margin", got.MarginPct, 30)
	if got.Comparison != CompareNone {
		t.Fatalf("comparison = %s, want none", got.Comparison)
	}
}

func TestSuggestPrice_Unachievable(t *testing.T) {
	cfg := DefaultCostConfig()
	cfg.AdType = AdPremium
	r := Recompute([]LineItem{{ClientID: "A", UnitPrice: 100, UnitCost: 50, Quantity: 1}}, cfg)

	got := SuggestPrice(r, 90, 0)
	if got.Status != SuggestionUnachievable {
		t.Fatalf("status = %s, want unachievable", got.Status)
	}
	if got.Price != 0 {
		t.Fatalf("price = %v, want 0", got.Price)
	}
}

func TestSuggestPrice_NoData(t *testing.T) {
	got := SuggestPrice(Recompute(nil, DefaultCostConfig()), 30, 100)
	if got.Status != SuggestionNoData {
		t.Fatalf("status = %s, want no_data", got.Status)
	}
}

func TestSuggestPrice_CompetitorComparison(t *testing.T) {
	r := singleItemResult()
	price := SuggestPrice(r, 30, 0).Price // ~215.66

	tests := []struct {
		competitor float64
		want       Comparison
	}{
		{price * 1.02, CompareParity},
		{price / 1.02, CompareParity},
		{250, CompareBelow},
		{180, CompareAbove},
	}
	for _, tt := range tests {
		if got := SuggestPrice(r, 30, tt.competitor).Comparison; got != tt.want {
			t.Errorf("competitor %.2f: comparison = %s, want %s", tt.competitor, got, tt.want)
		}
	}
}

func TestAssess(t *testing.T) {
	empty := Assess(Recompute(nil, DefaultCostConfig()))
	if empty.Status != StatusPoor || len(empty.Recommendations) != 1 || empty.Recommendations[0] != RecommendAddProducts {
		t.Fatalf("unexpected empty assessment: %+v", empty)
	}

	fair := Assess(singleItemResult())
	if fair.Status != StatusFair {
		t.Fatalf("status = %s, want fair", fair.Status)
	}
	if len(fair.Recommendations) != 1 || fair.Recommendations[0] != RecommendAllGood {
		t.Fatalf("recommendations = %v", fair.Recommendations)
	}

	thin := Assess(AggregateResult{TotalItems: 2, Revenue: 100, Freight: 40, Commission: 19, MarginPct: 12})
	want := []Recommendation{RecommendRaisePrices, RecommendFreightHigh}
	if thin.Status != StatusPoor || !slices.Equal(thin.Recommendations, want) {
		t.Fatalf("unexpected assessment: %+v", thin)
	}

	great := Assess(AggregateResult{TotalItems: 1, Revenue: 100, MarginPct: 40})
	if great.Status != StatusExcellent || great.Recommendations[0] != RecommendAllGood {
		t.Fatalf("unexpected assessment: %+v", great)
	}
}

func TestGoal(t *testing.T) {
	g := Goal(250, 1000)
	nearlyEqual(t, "percent", g.Percent, 25)
	nearlyEqual(t, "remaining", g.Remaining, 750)

	over := Goal(1500, 1000)
	nearlyEqual(t, "remaining", over.Remaining, 0)
	nearlyEqual(t, "percent", over.Percent, 150)
}
