package pricing

import "math"

// Overhead breaks the operational overhead down by source.
type Overhead struct {
	FixedAllocated float64 `json:"fixedAllocated"`
	Taxes          float64 `json:"taxes"`
	Losses         float64 `json:"losses"`
	Marketing      float64 `json:"marketing"`
	PaymentFees    float64 `json:"paymentFees"`
	Total          float64 `json:"total"`
}

// Averages holds per-item averages of the aggregate totals.
type Averages struct {
	Price      float64 `json:"price"`
	Cost       float64 `json:"cost"`
	Freight    float64 `json:"freight"`
	Packaging  float64 `json:"packaging"`
	Travel     float64 `json:"travel"`
	Commission float64 `json:"commission"`
	Overhead   float64 `json:"overhead"`
	Profit     float64 `json:"profit"`
}

// AggregateResult is the snapshot produced by one recompute pass.
type AggregateResult struct {
	TotalItems int `json:"totalItems"`
	OrderCount int `json:"orderCount"`

	Revenue           float64  `json:"revenue"`
	ProductCost       float64  `json:"productCost"`
	Freight           float64  `json:"freight"`
	Packaging         float64  `json:"packaging"`
	Travel            float64  `json:"travel"`
	CommissionRate    float64  `json:"commissionRate"`
	Commission        float64  `json:"commission"`
	PreOverheadProfit float64  `json:"preOverheadProfit"`
	Overhead          Overhead `json:"overhead"`
	NetProfit         float64  `json:"netProfit"`
	MarginPct         float64  `json:"marginPct"`

	Averages      Averages `json:"averages"`
	TicketSize    float64  `json:"ticketSize"`
	ItemsPerOrder float64  `json:"itemsPerOrder"`
	WeightGrams   int      `json:"weightGrams"`
	TripCount     int      `json:"tripCount"`

	// Projection of the same sale without marketplace commission.
	DirectProfit    float64 `json:"directProfit"`
	DirectMarginPct float64 `json:"directMarginPct"`
}

// Aggregate sums allocated costs and revenue over every unit of every order
// and derives commission, operational overhead, net profit and margin.
func Aggregate(orders []Order, cfg CostConfig) AggregateResult {
	var r AggregateResult
	var cardRevenue float64

	for _, o := range orders {
		if len(o.Units) == 0 {
			continue
		}
		r.OrderCount++
		r.WeightGrams += o.WeightGrams
		for _, u := range o.Units {
			r.TotalItems++
			r.Revenue += u.UnitPrice
			r.ProductCost += u.UnitCost
			r.Freight += u.Freight
			r.Packaging += u.Packaging
			r.Travel += u.Travel
			if u.Channel == ChannelCard {
				cardRevenue += u.UnitPrice
			}
		}
	}

	r.CommissionRate = cfg.CommissionRate()
	r.Commission = r.Revenue * r.CommissionRate
	r.PreOverheadProfit = r.Revenue - r.ProductCost - r.Freight - r.Packaging - r.Travel - r.Commission

	r.Overhead = computeOverhead(cfg.Overhead, r.TotalItems, r.Revenue, cardRevenue)
	r.NetProfit = r.PreOverheadProfit - r.Overhead.Total
	r.MarginPct = safeDiv(r.NetProfit, r.Revenue) * 100

	n := float64(r.TotalItems)
	r.Averages = Averages{
		Price:      safeDiv(r.Revenue, n),
		Cost:       safeDiv(r.ProductCost, n),
		Freight:    safeDiv(r.Freight, n),
		Packaging:  safeDiv(r.Packaging, n),
		Travel:     safeDiv(r.Travel, n),
		Commission: safeDiv(r.Commission, n),
		Overhead:   safeDiv(r.Overhead.Total, n),
		Profit:     safeDiv(r.NetProfit, n),
	}
	r.TicketSize = safeDiv(r.Revenue, float64(r.OrderCount))
	r.ItemsPerOrder = safeDiv(n, float64(r.OrderCount))

	if cfg.MaxCargoKgPerTrip > 0 {
		r.TripCount = int(math.Ceil(float64(r.WeightGrams) / 1000 / cfg.MaxCargoKgPerTrip))
	}

	r.DirectProfit = r.NetProfit + r.Commission
	r.DirectMarginPct = safeDiv(r.DirectProfit, r.Revenue) * 100
	return r
}

func computeOverhead(cfg OverheadConfig, items int, revenue, cardRevenue float64) Overhead {
	perItemFixed := (cfg.MonthlyFixedCost + cfg.MonthlyOwnerDraw) / math.Max(cfg.ExpectedMonthlyVolume, 1)

	o := Overhead{
		FixedAllocated: perItemFixed * float64(items),
		Taxes:          revenue * cfg.TaxPct / 100,
		Losses:         revenue * cfg.LossPct / 100,
		Marketing:      revenue * cfg.MarketingPct / 100,
		PaymentFees:    cardRevenue * cfg.PaymentFeePct / 100,
	}
	o.Total = o.FixedAllocated + o.Taxes + o.Losses + o.Marketing + o.PaymentFees
	return o
}
