package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
	"github.com/danieldesouzalongo/01gestao/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type recordingObserver struct {
	committed int
	units     int
	rejected  map[string]int
	deleted   int
}

func (o *recordingObserver) SaleCommitted(q int, _ float64) { o.committed++; o.units += q }
func (o *recordingObserver) SaleRejected(reason string) {
	if o.rejected == nil {
		o.rejected = map[string]int{}
	}
	o.rejected[reason]++
}
func (o *recordingObserver) SaleDeleted() { o.deleted++ }

func newTestService(t *testing.T) (*Service, storage.Store, *recordingObserver) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "inventory-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	seq := 0
	obs := &recordingObserver{}
	svc := NewService(store,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("sale-%d", seq) }),
		WithObserver(obs),
	)
	return svc, store, obs
}

func addProduct(t *testing.T, svc *Service, name string, qty int) storage.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), storage.Product{
		Name: name, Quantity: qty, UnitCost: 100, UnitWeightGrams: 800, UnitPrice: 199.90,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	return p
}

func stock(t *testing.T, store storage.Store, id int64) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Quantity
}

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCommitSale_DecrementsStockAndRecordsHistory(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto A", 25)

	r, err := svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 2, ClientLabel: " Ana "})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}

	if r.RemainingStock != 23 {
		t.Fatalf("remaining = %d, want 23", r.RemainingStock)
	}
	nearlyEqual(t, "total", r.Sale.Total, 399.80)
	nearlyEqual(t, "cost", r.Sale.Cost, 200)
	nearlyEqual(t, "profit", r.Sale.Profit, 143.83)
	nearlyEqual(t, "margin", r.Sale.MarginPct, 49.97)
	if r.Sale.ID != "sale-1" || !r.Sale.Timestamp.Equal(fixedNow) {
		t.Fatalf("unexpected id/timestamp: %s %v", r.Sale.ID, r.Sale.Timestamp)
	}
	if r.Sale.ClientLabel != "Ana" || r.Sale.PaymentChannel != pricing.ChannelPix || r.Sale.Origin != storage.OriginPanel {
		t.Fatalf("unexpected sale labels: %+v", r.Sale)
	}

	if got := stock(t, store, p.ID); got != 23 {
		t.Fatalf("stored stock = %d, want 23", got)
	}
	sales, err := svc.Sales(ctx)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(sales) != 1 || sales[0].ID != "sale-1" {
		t.Fatalf("unexpected history: %+v", sales)
	}
	if obs.committed != 1 || obs.units != 2 {
		t.Fatalf("observer = %+v", obs)
	}
}

func TestCommitSale_UsesSavedAdType(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto A", 5)

	cfg := pricing.DefaultCostConfig()
	cfg.AdType = pricing.AdPremium
	if err := store.SaveCostConfig(ctx, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	r, err := svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 1, UnitPrice: 100, UnitCost: 50})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	nearlyEqual(t, "profit", r.Sale.Profit, 31)
	nearlyEqual(t, "margin", r.Sale.MarginPct, 50)
	nearlyEqual(t, "unitPrice", r.Sale.UnitPrice, 100)
}

func TestCommitSale_RequestAdTypeOverridesConfig(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto A", 5)

	r, err := svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 1, UnitPrice: 100, UnitCost: 50})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	nearlyEqual(t, "classico profit", r.Sale.Profit, 36)

	r, err = svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 1, UnitPrice: 100, UnitCost: 50, AdType: pricing.AdPremium})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	nearlyEqual(t, "premium profit", r.Sale.Profit, 31)

	r, err = svc.PreviewSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 1, UnitPrice: 100, UnitCost: 50, AdType: "unknown"})
	if err != nil {
		t.Fatalf("preview sale: %v", err)
	}
	nearlyEqual(t, "unknown ad type falls back to classico", r.Sale.Profit, 36)
}

func TestCommitSale_Rejections(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto C", 8)

	tests := []struct {
		name   string
		req    CommitRequest
		target error
		reason RejectionReason
	}{
		{"zero quantity", CommitRequest{ProductID: p.ID, Quantity: 0}, ErrInvalidQuantity, ReasonInvalidQuantity},
		{"negative quantity", CommitRequest{ProductID: p.ID, Quantity: -3}, ErrInvalidQuantity, ReasonInvalidQuantity},
		{"unknown product", CommitRequest{ProductID: 999, Quantity: 1}, ErrProductNotFound, ReasonProductNotFound},
		{"over stock", CommitRequest{ProductID: p.ID, Quantity: 9}, ErrStockInsufficient, ReasonStockInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CommitSale(ctx, tt.req)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			var rej *RejectionError
			if !errors.As(err, &rej) || rej.Reason != tt.reason {
				t.Fatalf("expected rejection %s, got %v", tt.reason, err)
			}
		})
	}

	_, err := svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 9})
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Available != 8 || rej.Requested != 9 {
		t.Fatalf("unexpected rejection detail: %+v", rej)
	}

	if got := stock(t, store, p.ID); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}
	if obs.committed != 0 || obs.rejected[string(ReasonStockInsufficient)] != 2 {
		t.Fatalf("observer = %+v", obs)
	}
}

func TestCommitSale_ExactStockEmptiesProduct(t *testing.T) {
	svc, store, _ := newTestService(t)
	p := addProduct(t, svc, "Produto C", 8)

	r, err := svc.CommitSale(context.Background(), CommitRequest{ProductID: p.ID, Quantity: 8})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	if r.RemainingStock != 0 || stock(t, store, p.ID) != 0 {
		t.Fatalf("expected empty stock")
	}
}

func TestPreviewSale_DoesNotMutate(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto B", 15)

	r, err := svc.PreviewSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if r.RemainingStock != 12 {
		t.Fatalf("remaining = %d, want 12", r.RemainingStock)
	}
	if got := stock(t, store, p.ID); got != 15 {
		t.Fatalf("stock = %d, want 15", got)
	}
	sales, _ := svc.Sales(ctx)
	if len(sales) != 0 || obs.committed != 0 {
		t.Fatalf("preview must not record a sale")
	}
}

func TestCommitBatch_AllOrNothing(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	a := addProduct(t, svc, "Produto A", 25)
	b := addProduct(t, svc, "Produto B", 15)

	_, err := svc.CommitBatch(ctx, []CommitRequest{
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 20},
		{ProductID: a.ID, Quantity: 10},
	})
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Line != 3 || rej.Reason != ReasonStockInsufficient || rej.Available != 5 {
		t.Fatalf("unexpected rejection: %+v", rej)
	}

	if stock(t, store, a.ID) != 25 || stock(t, store, b.ID) != 15 {
		t.Fatalf("stock changed after rejected batch")
	}
	sales, _ := svc.Sales(ctx)
	if len(sales) != 0 {
		t.Fatalf("expected no sales, got %d", len(sales))
	}
	if obs.committed != 0 || obs.rejected[string(ReasonStockInsufficient)] != 1 {
		t.Fatalf("observer = %+v", obs)
	}
}

func TestCommitBatch_Success(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	a := addProduct(t, svc, "Produto A", 25)
	b := addProduct(t, svc, "Produto B", 15)

	out, err := svc.CommitBatch(ctx, []CommitRequest{
		{ProductID: a.ID, Quantity: 2, ClientLabel: "Cliente 1"},
		{ProductID: b.ID, Quantity: 1, ClientLabel: "Cliente 2", PaymentChannel: pricing.ChannelCard},
		{ProductID: a.ID, Quantity: 3, ClientLabel: "Cliente 3"},
	})
	if err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	if out.Units != 6 || len(out.Receipts) != 3 {
		t.Fatalf("unexpected batch receipt: %+v", out)
	}
	nearlyEqual(t, "total", out.Total, 1199.40)
	if out.Receipts[2].RemainingStock != 20 {
		t.Fatalf("remaining after line 3 = %d, want 20", out.Receipts[2].RemainingStock)
	}
	for _, r := range out.Receipts {
		if r.Sale.Origin != storage.OriginBatch {
			t.Fatalf("origin = %s, want batch", r.Sale.Origin)
		}
	}
	if stock(t, store, a.ID) != 20 || stock(t, store, b.ID) != 14 {
		t.Fatalf("unexpected stock after batch")
	}
	if obs.committed != 3 || obs.units != 6 {
		t.Fatalf("observer = %+v", obs)
	}

	empty, err := svc.CommitBatch(ctx, nil)
	if err != nil || len(empty.Receipts) != 0 {
		t.Fatalf("empty batch: %+v %v", empty, err)
	}
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	svc, store, obs := newTestService(t)
	ctx := context.Background()
	p := addProduct(t, svc, "Produto A", 25)

	r, err := svc.CommitSale(ctx, CommitRequest{ProductID: p.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	if _, err := svc.DeleteSale(ctx, r.Sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if got := stock(t, store, p.ID); got != 25 {
		t.Fatalf("stock = %d, want 25", got)
	}
	if obs.deleted != 1 {
		t.Fatalf("observer = %+v", obs)
	}

	if _, err := svc.DeleteSale(ctx, r.Sale.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProducts_NormalizeAndNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, storage.Product{Name: "  ", Quantity: -4, UnitCost: -1, UnitPrice: 10.005})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if p.Name != "Sem nome" || p.Quantity != 0 || p.UnitCost != 0 {
		t.Fatalf("unexpected normalized product: %+v", p)
	}

	if _, err := svc.UpdateProduct(ctx, storage.Product{ID: 999, Name: "x"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := svc.RemoveProduct(ctx, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	svc, _, _ := newTestService(t)
	addProduct(t, svc, "Produto A", 25)
	addProduct(t, svc, "Produto B", 15)
	addProduct(t, svc, "Produto C", 4)

	s, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Products != 3 || s.TotalUnits != 44 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	nearlyEqual(t, "stockValue", s.StockValue, 4400)
	if len(s.LowStock) != 1 || s.LowStock[0].Name != "Produto C" {
		t.Fatalf("unexpected low stock: %+v", s.LowStock)
	}
}

func TestLowStock_ThresholdIsExclusive(t *testing.T) {
	products := []storage.Product{{Name: "a", Quantity: 5}, {Name: "b", Quantity: 4}, {Name: "c", Quantity: 0}}
	low := LowStock(products, LowStockThreshold)
	if len(low) != 2 || low[0].Name != "b" || low[1].Name != "c" {
		t.Fatalf("unexpected low stock: %+v", low)
	}
}

func TestLevel(t *testing.T) {
	tests := map[int]StockLevel{6: StockOK, 5: StockLow, 1: StockLow, 0: StockEmpty, -1: StockEmpty}
	for qty, want := range tests {
		if got := Level(qty); got != want {
			t.Errorf("Level(%d) = %s, want %s", qty, got, want)
		}
	}
}
