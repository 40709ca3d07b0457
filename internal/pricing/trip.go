package pricing

// ComputeTripCost returns the cost of a single delivery round trip.
func ComputeTripCost(t TravelConfig) float64 {
	distance := nonNegative(t.DistanceKm)

	fuel := 0.0
	if kml := nonNegative(t.KmPerLiter); kml > 0 {
		fuel = distance / kml * nonNegative(t.FuelPrice)
	}
	distanceCost := nonNegative(t.CostPerKm) * distance
	timeCost := nonNegative(t.CostPerHour) * (distance * nonNegative(t.MinutesPerKm) / 60)
	fixed := nonNegative(t.ParkingFee) + nonNegative(t.TollFee)

	return fuel + distanceCost + timeCost + fixed
}
