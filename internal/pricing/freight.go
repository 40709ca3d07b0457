package pricing

// ComputeFreight returns the shipping cost of one order.
//
// The first tier whose MaxGrams is >= weightGrams wins, so a weight exactly on
// a breakpoint stays in the lower tier. Heavier orders pay the table default,
// adjusted by the small-order surcharge or the high-value discount. A table
// without a ValueThreshold uses DefaultValueThreshold.
func ComputeFreight(weightGrams int, orderValue float64, table FreightTable) float64 {
	for _, tier := range table.Tiers {
		if weightGrams <= tier.MaxGrams {
			return nonNegative(tier.Price)
		}
	}

	threshold := table.ValueThreshold
	if threshold <= 0 {
		threshold = DefaultValueThreshold
	}

	rate := table.Default
	switch {
	case orderValue > 0 && orderValue < threshold:
		rate += table.SmallOrderFee + float64(weightGrams)*table.PerGramSurcharge
	case orderValue >= threshold && table.DiscountPct > 0:
		rate *= 1 - table.DiscountPct/100
	}
	return nonNegative(rate)
}
