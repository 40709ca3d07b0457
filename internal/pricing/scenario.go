package pricing

// Baseline is the per-unit starting point for what-if scenarios.
type Baseline struct {
	AvgPrice float64 `json:"avgPrice"`
	AvgCost  float64 `json:"avgCost"`
}

// BaselineFrom takes the average price and cost of a computed result.
func BaselineFrom(r AggregateResult) Baseline {
	return Baseline{AvgPrice: r.Averages.Price, AvgCost: r.Averages.Cost}
}

// ScenarioResult is the unit economics after applying one scenario.
type ScenarioResult struct {
	Price      float64 `json:"price"`
	Cost       float64 `json:"cost"`
	Commission float64 `json:"commission"`
	Profit     float64 `json:"profit"`
	MarginPct  float64 `json:"marginPct"`
}

// SimulatePriceChange raises (or lowers, for negative pct) the average price.
func SimulatePriceChange(b Baseline, pct float64) ScenarioResult {
	price := b.AvgPrice * (1 + pct/100)
	profit := price - b.AvgCost

	margin := 0.0
	if price > 0 {
		margin = profit / price * 100
	}
	return ScenarioResult{Price: price, Cost: b.AvgCost, Profit: profit, MarginPct: margin}
}

// SimulateCostChange reduces (or raises, for negative pct) the average cost.
func SimulateCostChange(b Baseline, pct float64) ScenarioResult {
	cost := b.AvgCost * (1 - pct/100)
	profit := b.AvgPrice - cost
	return ScenarioResult{
		Price:     b.AvgPrice,
		Cost:      cost,
		Profit:    profit,
		MarginPct: safeDiv(profit, b.AvgPrice) * 100,
	}
}

// SimulateAdTypeChange recomputes the unit profit under another ad tier,
// keeping packaging and other per-item costs from cfg fixed.
func SimulateAdTypeChange(b Baseline, adType AdType, cfg CostConfig) ScenarioResult {
	cfg = NormalizeConfig(cfg)
	rate := CommissionRate(adType, cfg.Reputation, cfg.ReputationDiscountPct)
	commission := b.AvgPrice * rate
	profit := b.AvgPrice - b.AvgCost - commission - cfg.PackagingBase - cfg.OtherCostsPerItem

	margin := 0.0
	if b.AvgPrice > 0 {
		margin = profit / b.AvgPrice * 100
	}
	return ScenarioResult{
		Price:      b.AvgPrice,
		Cost:       b.AvgCost,
		Commission: commission,
		Profit:     profit,
		MarginPct:  margin,
	}
}
