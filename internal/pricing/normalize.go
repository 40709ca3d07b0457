package pricing

import (
	"math"
	"slices"
	"strings"
)

// NormalizeLineItem replaces invalid numeric fields with their documented
// defaults: money and weight fall back to 0, quantity to 1, an unknown payment
// channel to pix. It never fails.
func NormalizeLineItem(item LineItem) LineItem {
	item.ClientID = strings.TrimSpace(item.ClientID)
	item.UnitPrice = nonNegative(item.UnitPrice)
	item.UnitCost = nonNegative(item.UnitCost)
	if item.UnitWeightGrams < 0 {
		item.UnitWeightGrams = 0
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	switch item.PaymentChannel {
	case ChannelCard, ChannelPix, ChannelBoleto:
	default:
		item.PaymentChannel = ChannelPix
	}
	return item
}

// NormalizeConfig returns a copy of cfg with every negative or non-finite
// number replaced by 0, an unknown ad type replaced by classico and the
// freight tiers sorted by weight.
func NormalizeConfig(cfg CostConfig) CostConfig {
	cfg.PackagingBase = nonNegative(cfg.PackagingBase)
	cfg.OtherCostsPerItem = nonNegative(cfg.OtherCostsPerItem)
	if _, ok := baseCommission[cfg.AdType]; !ok {
		cfg.AdType = AdClassico
	}
	cfg.ReputationDiscountPct = clampPct(cfg.ReputationDiscountPct)
	cfg.Freight = normalizeFreight(cfg.Freight)

	t := &cfg.Travel
	t.DistanceKm = nonNegative(t.DistanceKm)
	t.KmPerLiter = nonNegative(t.KmPerLiter)
	t.FuelPrice = nonNegative(t.FuelPrice)
	t.CostPerKm = nonNegative(t.CostPerKm)
	t.CostPerHour = nonNegative(t.CostPerHour)
	t.MinutesPerKm = nonNegative(t.MinutesPerKm)
	t.ParkingFee = nonNegative(t.ParkingFee)
	t.TollFee = nonNegative(t.TollFee)

	o := &cfg.Overhead
	o.MonthlyFixedCost = nonNegative(o.MonthlyFixedCost)
	o.ExpectedMonthlyVolume = nonNegative(o.ExpectedMonthlyVolume)
	o.MonthlyOwnerDraw = nonNegative(o.MonthlyOwnerDraw)
	o.TaxPct = nonNegative(o.TaxPct)
	o.LossPct = nonNegative(o.LossPct)
	o.MarketingPct = nonNegative(o.MarketingPct)
	o.PaymentFeePct = nonNegative(o.PaymentFeePct)

	cfg.MaxCargoKgPerTrip = nonNegative(cfg.MaxCargoKgPerTrip)
	cfg.TargetProfit = nonNegative(cfg.TargetProfit)
	return cfg
}

func normalizeFreight(table FreightTable) FreightTable {
	tiers := make([]FreightTier, 0, len(table.Tiers))
	for _, tier := range table.Tiers {
		if tier.MaxGrams < 0 {
			continue
		}
		tiers = append(tiers, FreightTier{MaxGrams: tier.MaxGrams, Price: nonNegative(tier.Price)})
	}
	slices.SortStableFunc(tiers, func(a, b FreightTier) int { return a.MaxGrams - b.MaxGrams })

	table.Tiers = tiers
	table.Default = nonNegative(table.Default)
	if table.ValueThreshold = nonNegative(table.ValueThreshold); table.ValueThreshold == 0 {
		table.ValueThreshold = DefaultValueThreshold
	}
	table.SmallOrderFee = nonNegative(table.SmallOrderFee)
	table.PerGramSurcharge = nonNegative(table.PerGramSurcharge)
	table.DiscountPct = clampPct(table.DiscountPct)
	return table
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clampPct(v float64) float64 {
	v = nonNegative(v)
	if v > 100 {
		return 100
	}
	return v
}

// safeDiv returns 0 instead of NaN or Inf when den is 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
