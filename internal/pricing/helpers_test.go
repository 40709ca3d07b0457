package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

// bareConfig has no freight, packaging or travel so tests can isolate one cost.
func bareConfig() CostConfig {
	return CostConfig{AdType: AdClassico}
}
