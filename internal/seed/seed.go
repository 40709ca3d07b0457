package seed

import (
	"context"
	"fmt"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

const (
	defaultUnitCost   = 100.00
	defaultUnitWeight = 800
	defaultUnitPrice  = 199.90
)

// DefaultProducts is the starter inventory of a fresh installation.
func DefaultProducts() []storage.Product {
	return []storage.Product{
		{Name: "Produto A", Quantity: 25, UnitCost: defaultUnitCost, UnitWeightGrams: defaultUnitWeight, UnitPrice: defaultUnitPrice},
		{Name: "Produto B", Quantity: 15, UnitCost: defaultUnitCost, UnitWeightGrams: defaultUnitWeight, UnitPrice: defaultUnitPrice},
		{Name: "Produto C", Quantity: 8, UnitCost: defaultUnitCost, UnitWeightGrams: defaultUnitWeight, UnitPrice: defaultUnitPrice},
	}
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way: default products are
// only added to an empty inventory and the default cost configuration only
// when none was saved.
func Run(ctx context.Context, store storage.Store) (Stats, error) {
	stats := Stats{}

	if err := ensureProducts(ctx, store, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensureCostConfig(ctx, store, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureProducts(ctx context.Context, store storage.Store, stats *Stats) error {
	existing, err := store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("check product existence: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range DefaultProducts() {
		if _, err := store.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("insert default product %q: %w", p.Name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureCostConfig(ctx context.Context, store storage.Store, stats *Stats) error {
	_, ok, err := store.LoadCostConfig(ctx)
	if err != nil {
		return fmt.Errorf("check cost config existence: %w", err)
	}
	if ok {
		return nil
	}

	if err := store.SaveCostConfig(ctx, pricing.DefaultCostConfig()); err != nil {
		return fmt.Errorf("insert default cost config: %w", err)
	}
	stats.Inserts++
	return nil
}
