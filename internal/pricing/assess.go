package pricing

// Status classifies the health of the current margin.
type Status string

const (
	StatusPoor      Status = "poor"
	StatusFair      Status = "fair"
	StatusGood      Status = "good"
	StatusExcellent Status = "excellent"
)

// Recommendation is a short actionable hint derived from a result.
type Recommendation string

const (
	RecommendAddProducts    Recommendation = "add_products"
	RecommendRaisePrices    Recommendation = "raise_prices"
	RecommendFreightHigh    Recommendation = "freight_high"
	RecommendCommissionHigh Recommendation = "commission_high"
	RecommendAllGood        Recommendation = "all_good"
)

// Assessment is the status and the recommendations for one result.
type Assessment struct {
	Status          Status           `json:"status"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Assess classifies r by margin and lists the recommendations that apply.
func Assess(r AggregateResult) Assessment {
	a := Assessment{Status: StatusGood}
	switch {
	case r.MarginPct < 20:
		a.Status = StatusPoor
	case r.MarginPct < 30:
		a.Status = StatusFair
	case r.MarginPct >= 35:
		a.Status = StatusExcellent
	}

	if r.TotalItems == 0 {
		a.Recommendations = append(a.Recommendations, RecommendAddProducts)
	}
	if r.TotalItems > 0 && r.MarginPct < 25 {
		a.Recommendations = append(a.Recommendations, RecommendRaisePrices)
	}
	if r.Freight > r.Revenue*0.3 {
		a.Recommendations = append(a.Recommendations, RecommendFreightHigh)
	}
	if r.Commission > r.Revenue*0.25 {
		a.Recommendations = append(a.Recommendations, RecommendCommissionHigh)
	}
	if len(a.Recommendations) == 0 {
		a.Recommendations = append(a.Recommendations, RecommendAllGood)
	}
	return a
}

// GoalProgress is how far a profit is from the target profit.
type GoalProgress struct {
	Target    float64 `json:"target"`
	Percent   float64 `json:"percent"`
	Remaining float64 `json:"remaining"`
}

// Goal reports profit progress against target. Percent may exceed 100.
func Goal(profit, target float64) GoalProgress {
	g := GoalProgress{Target: target}
	if target > 0 {
		g.Percent = profit / target * 100
	}
	if target > profit {
		g.Remaining = target - profit
	}
	return g
}
