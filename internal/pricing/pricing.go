// Package pricing computes per-order and aggregate margins for a batch of
// working line items. Every function is pure: callers pass the current line
// items and cost configuration on each call and receive a fresh result.
package pricing

// PaymentChannel identifies how the buyer pays for a line item.
type PaymentChannel string

const (
	ChannelCard   PaymentChannel = "card"
	ChannelPix    PaymentChannel = "pix"
	ChannelBoleto PaymentChannel = "boleto"
)

// AdType is the marketplace advertisement tier that sets the commission rate.
type AdType string

const (
	AdClassico AdType = "classico"
	AdPremium  AdType = "premium"
)

// Reputation is the seller reputation level on the marketplace.
type Reputation string

const (
	ReputationNone     Reputation = ""
	ReputationGreen    Reputation = "green"
	ReputationGold     Reputation = "gold"
	ReputationPlatinum Reputation = "platinum"
)

// NoClient groups line items that carry no client label.
const NoClient = "Sem cliente"

var baseCommission = map[AdType]float64{
	AdClassico: 0.14,
	AdPremium:  0.19,
}

// LineItem represents one product row in the working calculator.
type LineItem struct {
	ClientID        string         `json:"clientId"`
	ProductID       int64          `json:"productId,omitempty"`
	UnitPrice       float64        `json:"unitPrice"`
	UnitWeightGrams int            `json:"unitWeightGrams"`
	Quantity        int            `json:"quantity"`
	UnitCost        float64        `json:"unitCost"`
	PaymentChannel  PaymentChannel `json:"paymentChannel"`
}

// FreightTier prices every shipment weighing up to MaxGrams.
type FreightTier struct {
	MaxGrams int     `json:"maxGrams"`
	Price    float64 `json:"price"`
}

// FreightTable is the weight-bracket shipping table plus its overflow rule.
type FreightTable struct {
	Tiers   []FreightTier `json:"tiers"`
	Default float64       `json:"default"`

	// Overflow adjustments, applied only above the last tier.
	ValueThreshold   float64 `json:"valueThreshold"`
	SmallOrderFee    float64 `json:"smallOrderFee"`
	PerGramSurcharge float64 `json:"perGramSurcharge"`
	DiscountPct      float64 `json:"discountPct"`
}

// TravelConfig holds the inputs of one delivery round trip.
type TravelConfig struct {
	DistanceKm   float64 `json:"distanceKm"`
	KmPerLiter   float64 `json:"kmPerLiter"`
	FuelPrice    float64 `json:"fuelPrice"`
	CostPerKm    float64 `json:"costPerKm"`
	CostPerHour  float64 `json:"costPerHour"`
	MinutesPerKm float64 `json:"minutesPerKm"`
	ParkingFee   float64 `json:"parkingFee"`
	TollFee      float64 `json:"tollFee"`
}

// OverheadConfig holds the non-logistics business costs spread over sales.
type OverheadConfig struct {
	MonthlyFixedCost      float64 `json:"monthlyFixedCost"`
	ExpectedMonthlyVolume float64 `json:"expectedMonthlyVolume"`
	MonthlyOwnerDraw      float64 `json:"monthlyOwnerDraw"`
	TaxPct                float64 `json:"taxPct"`
	LossPct               float64 `json:"lossPct"`
	MarketingPct          float64 `json:"marketingPct"`
	PaymentFeePct         float64 `json:"paymentFeePct"`
}

// CostConfig is the caller-supplied configuration read on every recompute.
type CostConfig struct {
	PackagingBase         float64        `json:"packagingBase"`
	OtherCostsPerItem     float64        `json:"otherCostsPerItem"`
	Freight               FreightTable   `json:"freight"`
	AdType                AdType         `json:"adType"`
	Reputation            Reputation     `json:"reputation,omitempty"`
	ReputationDiscountPct float64        `json:"reputationDiscountPct,omitempty"`
	Travel                TravelConfig   `json:"travel"`
	Overhead              OverheadConfig `json:"overhead"`
	MaxCargoKgPerTrip     float64        `json:"maxCargoKgPerTrip"`
	TargetProfit          float64        `json:"targetProfit"`
}

// DefaultValueThreshold is the order value splitting the overflow surcharge
// from the overflow discount.
const DefaultValueThreshold = 79.0

// DefaultFreightTable returns the standard marketplace shipping table.
func DefaultFreightTable() FreightTable {
	return FreightTable{
		Tiers: []FreightTier{
			{MaxGrams: 300, Price: 11.97},
			{MaxGrams: 500, Price: 12.87},
			{MaxGrams: 1000, Price: 13.47},
			{MaxGrams: 2000, Price: 14.07},
			{MaxGrams: 3000, Price: 14.97},
			{MaxGrams: 4000, Price: 16.17},
		},
		Default:        17.07,
		ValueThreshold: DefaultValueThreshold,
	}
}

// DefaultCostConfig returns the configuration a fresh installation starts with.
func DefaultCostConfig() CostConfig {
	return CostConfig{
		PackagingBase:     5.50,
		OtherCostsPerItem: 1.00,
		Freight:           DefaultFreightTable(),
		AdType:            AdClassico,
		Travel: TravelConfig{
			DistanceKm: 3.0,
			KmPerLiter: 10.0,
			FuelPrice:  6.00,
		},
		MaxCargoKgPerTrip: 5,
		TargetProfit:      1000,
	}
}

// CommissionRate returns the effective commission fraction for an ad tier.
// The reputation discount only applies to the best reputation tier.
func CommissionRate(adType AdType, reputation Reputation, discountPct float64) float64 {
	rate, ok := baseCommission[adType]
	if !ok {
		rate = baseCommission[AdClassico]
	}
	if reputation == ReputationPlatinum && discountPct > 0 {
		rate *= 1 - clampPct(discountPct)/100
	}
	return rate
}

// CommissionRate returns the effective commission fraction of the config.
func (c CostConfig) CommissionRate() float64 {
	return CommissionRate(c.AdType, c.Reputation, c.ReputationDiscountPct)
}

// Recompute normalizes the inputs, groups them into orders and aggregates the
// result. It is the single entry point callers invoke after any input change.
func Recompute(items []LineItem, cfg CostConfig) AggregateResult {
	cfg = NormalizeConfig(cfg)
	normalized := make([]LineItem, len(items))
	for i, item := range items {
		normalized[i] = NormalizeLineItem(item)
	}
	return Aggregate(GroupAndAllocate(normalized, cfg), cfg)
}
