package pricing

// Unit is one physical item inside an order, carrying its allocated share of
// the order-level costs.
type Unit struct {
	UnitPrice   float64
	UnitCost    float64
	WeightGrams int
	Channel     PaymentChannel

	Freight   float64
	Packaging float64
	Travel    float64
}

// Order groups every unit sold to one client in the working calculator.
type Order struct {
	ClientID    string
	Units       []Unit
	WeightGrams int
	Value       float64

	Freight   float64
	Packaging float64
	Travel    float64
}

// UnitCount returns the number of physical units in the order.
func (o Order) UnitCount() int {
	return len(o.Units)
}

// GroupAndAllocate partitions line items by client, expands each row into one
// unit per quantity and spreads the order freight, packaging and travel costs
// evenly over the units. Orders keep the order in which their client first
// appears.
func GroupAndAllocate(items []LineItem, cfg CostConfig) []Order {
	index := make(map[string]int)
	var orders []Order

	for _, item := range items {
		client := item.ClientID
		if client == "" {
			client = NoClient
		}
		i, ok := index[client]
		if !ok {
			i = len(orders)
			index[client] = i
			orders = append(orders, Order{ClientID: client})
		}

		o := &orders[i]
		for q := 0; q < item.Quantity; q++ {
			o.Units = append(o.Units, Unit{
				UnitPrice:   item.UnitPrice,
				UnitCost:    item.UnitCost,
				WeightGrams: item.UnitWeightGrams,
				Channel:     item.PaymentChannel,
			})
			o.WeightGrams += item.UnitWeightGrams
			o.Value += item.UnitPrice
		}
	}

	trip := ComputeTripCost(cfg.Travel)
	for i := range orders {
		o := &orders[i]
		n := len(o.Units)
		if n == 0 {
			continue
		}
		o.Freight = ComputeFreight(o.WeightGrams, o.Value, cfg.Freight)
		o.Packaging = cfg.PackagingBase * float64(n)
		o.Travel = trip

		freightShare := o.Freight / float64(n)
		packagingShare := o.Packaging / float64(n)
		travelShare := o.Travel / float64(n)
		for u := range o.Units {
			o.Units[u].Freight = freightShare
			o.Units[u].Packaging = packagingShare
			o.Units[u].Travel = travelShare
		}
	}
	return orders
}
