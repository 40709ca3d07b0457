// Package storagetest holds the behavior every storage.Store backend must
// share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// Factory opens an empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"ProductCRUD", testProductCRUD},
		{"CommitSalesDecrementsAndAppends", testCommitSales},
		{"CommitSalesIsAllOrNothing", testCommitSalesAllOrNothing},
		{"CommitSalesUnknownProduct", testCommitSalesUnknownProduct},
		{"DeleteSaleRestoresStock", testDeleteSaleRestoresStock},
		{"DeleteSaleFallsBackToName", testDeleteSaleFallsBackToName},
		{"CostConfigRoundTrip", testCostConfig},
		{"ExportImport", testExportImport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustCreate(t *testing.T, s storage.Store, name string, qty int) storage.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), storage.Product{
		Name: name, Quantity: qty, UnitCost: 100, UnitWeightGrams: 800, UnitPrice: 199.90,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func sale(id string, p storage.Product, qty int) storage.Sale {
	return storage.Sale{
		ID:             id,
		Timestamp:      time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		ClientLabel:    "Cliente 1",
		ProductID:      p.ID,
		ProductName:    p.Name,
		Quantity:       qty,
		UnitPrice:      p.UnitPrice,
		Total:          p.UnitPrice * float64(qty),
		Cost:           p.UnitCost * float64(qty),
		Profit:         71.91 * float64(qty),
		MarginPct:      49.97,
		PaymentChannel: pricing.ChannelPix,
		Origin:         storage.OriginPanel,
	}
}

func stockOf(t *testing.T, s storage.Store, id int64) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return p.Quantity
}

func testProductCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()

	a := mustCreate(t, s, "Produto A", 25)
	b := mustCreate(t, s, "Produto B", 15)
	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("expected distinct non-zero ids, got %d and %d", a.ID, b.ID)
	}

	b.Quantity = 40
	b.UnitPrice = 89.5
	if err := s.UpdateProduct(ctx, b); err != nil {
		t.Fatalf("update product: %v", err)
	}
	got, err := s.GetProduct(ctx, b.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got != b {
		t.Fatalf("got %+v, want %+v", got, b)
	}

	if err := s.DeleteProduct(ctx, a.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := s.GetProduct(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteProduct(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := s.UpdateProduct(ctx, storage.Product{ID: 999, Name: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	c := mustCreate(t, s, "Produto C", 8)
	if c.ID <= b.ID {
		t.Fatalf("ids must grow: %d after %d", c.ID, b.ID)
	}

	list, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != c.ID {
		t.Fatalf("unexpected product list: %+v", list)
	}
}

func testCommitSales(t *testing.T, s storage.Store) {
	ctx := context.Background()
	p := mustCreate(t, s, "Produto A", 25)

	err := s.CommitSales(ctx, []storage.Decrement{
		{ProductID: p.ID, Quantity: 3, Sale: sale("s-1", p, 3)},
		{ProductID: p.ID, Quantity: 2, Sale: sale("s-2", p, 2)},
	})
	if err != nil {
		t.Fatalf("commit sales: %v", err)
	}
	if got := stockOf(t, s, p.ID); got != 20 {
		t.Fatalf("stock = %d, want 20", got)
	}

	sales, err := s.ListSales(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 || sales[0].ID != "s-1" || sales[1].ID != "s-2" {
		t.Fatalf("unexpected sales: %+v", sales)
	}
	want := sale("s-1", p, 3)
	got := sales[0]
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	got.Timestamp = want.Timestamp
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func testCommitSalesAllOrNothing(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := mustCreate(t, s, "Produto A", 25)
	c := mustCreate(t, s, "Produto C", 2)

	err := s.CommitSales(ctx, []storage.Decrement{
		{ProductID: a.ID, Quantity: 5, Sale: sale("ok", a, 5)},
		{ProductID: c.ID, Quantity: 3, Sale: sale("short", c, 3)},
	})
	if !errors.Is(err, storage.ErrStockInsufficient) {
		t.Fatalf("expected ErrStockInsufficient, got %v", err)
	}
	if got := stockOf(t, s, a.ID); got != 25 {
		t.Fatalf("stock of A = %d, want 25 (untouched)", got)
	}
	if got := stockOf(t, s, c.ID); got != 2 {
		t.Fatalf("stock of C = %d, want 2 (untouched)", got)
	}
	sales, err := s.ListSales(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales, got %d", len(sales))
	}
}

func testCommitSalesUnknownProduct(t *testing.T, s storage.Store) {
	p := storage.Product{ID: 42, Name: "ghost"}
	err := s.CommitSales(context.Background(), []storage.Decrement{{ProductID: 42, Quantity: 1, Sale: sale("g", p, 1)}})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteSaleRestoresStock(t *testing.T, s storage.Store) {
	ctx := context.Background()
	p := mustCreate(t, s, "Produto B", 15)
	if err := s.CommitSales(ctx, []storage.Decrement{{ProductID: p.ID, Quantity: 4, Sale: sale("s-1", p, 4)}}); err != nil {
		t.Fatalf("commit sales: %v", err)
	}

	removed, err := s.DeleteSale(ctx, "s-1")
	if err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if removed.Quantity != 4 || removed.ProductName != "Produto B" {
		t.Fatalf("unexpected removed sale: %+v", removed)
	}
	if got := stockOf(t, s, p.ID); got != 15 {
		t.Fatalf("stock = %d, want 15", got)
	}
	if _, err := s.DeleteSale(ctx, "s-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testDeleteSaleFallsBackToName(t *testing.T, s storage.Store) {
	ctx := context.Background()
	old := mustCreate(t, s, "Produto A", 10)
	if err := s.CommitSales(ctx, []storage.Decrement{{ProductID: old.ID, Quantity: 2, Sale: sale("s-1", old, 2)}}); err != nil {
		t.Fatalf("commit sales: %v", err)
	}
	if err := s.DeleteProduct(ctx, old.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	again := mustCreate(t, s, "Produto A", 1)

	if _, err := s.DeleteSale(ctx, "s-1"); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if got := stockOf(t, s, again.ID); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
}

func testCostConfig(t *testing.T, s storage.Store) {
	ctx := context.Background()

	if _, ok, err := s.LoadCostConfig(ctx); err != nil || ok {
		t.Fatalf("expected no config yet, got ok=%v err=%v", ok, err)
	}

	cfg := pricing.DefaultCostConfig()
	cfg.AdType = pricing.AdPremium
	cfg.Overhead.TaxPct = 6
	cfg.Freight.Tiers = cfg.Freight.Tiers[:2]
	if err := s.SaveCostConfig(ctx, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	got, ok, err := s.LoadCostConfig(ctx)
	if err != nil || !ok {
		t.Fatalf("load config: ok=%v err=%v", ok, err)
	}
	if got.AdType != pricing.AdPremium || got.Overhead.TaxPct != 6 || len(got.Freight.Tiers) != 2 {
		t.Fatalf("unexpected config: %+v", got)
	}
	if got.Freight.Tiers[1] != (pricing.FreightTier{MaxGrams: 500, Price: 12.87}) {
		t.Fatalf("unexpected tier: %+v", got.Freight.Tiers[1])
	}
}

func testExportImport(t *testing.T, s storage.Store) {
	ctx := context.Background()
	p := mustCreate(t, s, "Produto A", 25)
	if err := s.CommitSales(ctx, []storage.Decrement{{ProductID: p.ID, Quantity: 1, Sale: sale("s-1", p, 1)}}); err != nil {
		t.Fatalf("commit sales: %v", err)
	}

	snap, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Products) != 1 || len(snap.Sales) != 1 || snap.CreatedAt.IsZero() {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Config.PackagingBase != 5.50 {
		t.Fatalf("export without saved config should carry defaults, got %+v", snap.Config)
	}

	replacement := storage.Snapshot{
		Products: []storage.Product{{ID: 7, Name: "Produto Z", Quantity: 3, UnitCost: 10, UnitPrice: 20}},
		Config:   pricing.DefaultCostConfig(),
	}
	if err := s.Import(ctx, replacement); err != nil {
		t.Fatalf("import: %v", err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 || products[0].ID != 7 {
		t.Fatalf("unexpected products after import: %+v", products)
	}
	sales, err := s.ListSales(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected sales cleared, got %d", len(sales))
	}

	next := mustCreate(t, s, "Produto N", 1)
	if next.ID <= 7 {
		t.Fatalf("new id %d must follow imported ids", next.ID)
	}

	if err := s.Import(ctx, snap); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if got := stockOf(t, s, p.ID); got != 24 {
		t.Fatalf("stock after restore = %d, want 24", got)
	}
}
