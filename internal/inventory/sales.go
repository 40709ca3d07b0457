package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danieldesouzalongo/01gestao/internal/money"
	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// CommitRequest asks to sell Quantity units of a product. A zero UnitPrice or
// UnitCost falls back to the value stored on the product. AdType, when set,
// replaces the ad type of the saved cost config for this sale only.
type CommitRequest struct {
	ProductID      int64                  `json:"productId"`
	Quantity       int                    `json:"quantity"`
	UnitPrice      float64                `json:"unitPrice,omitempty"`
	UnitCost       float64                `json:"unitCost,omitempty"`
	ClientLabel    string                 `json:"clientLabel,omitempty"`
	PaymentChannel pricing.PaymentChannel `json:"paymentChannel,omitempty"`
	Origin         storage.Origin         `json:"origin,omitempty"`
	AdType         pricing.AdType         `json:"adType,omitempty"`
}

// Receipt is an accepted (or previewed) sale and the stock left after it.
type Receipt struct {
	Sale           storage.Sale `json:"sale"`
	RemainingStock int          `json:"remainingStock"`
}

// BatchReceipt sums the receipts of a batch commit.
type BatchReceipt struct {
	Receipts []Receipt `json:"receipts"`
	Units    int       `json:"units"`
	Total    float64   `json:"total"`
	Profit   float64   `json:"profit"`
}

// SaleAmounts computes what one sale adds to the history. Commission is
// charged on the unit price; the margin ignores commission.
func SaleAmounts(unitPrice, unitCost float64, quantity int, commissionRate float64) (total, cost, profit, marginPct float64) {
	q := float64(quantity)
	commission := unitPrice * commissionRate
	total = unitPrice * q
	cost = unitCost * q
	profit = (unitPrice - unitCost - commission) * q
	if unitPrice > 0 {
		marginPct = (unitPrice - unitCost) / unitPrice * 100
	}
	return money.Round2(total), money.Round2(cost), money.Round2(profit), money.Round2(marginPct)
}

func (s *Service) costConfig(ctx context.Context) (pricing.CostConfig, error) {
	cfg, ok, err := s.store.LoadCostConfig(ctx)
	if err != nil {
		return pricing.CostConfig{}, fmt.Errorf("load cost config: %w", err)
	}
	if !ok {
		cfg = pricing.DefaultCostConfig()
	}
	return cfg, nil
}

// commissionRate is the rate charged on req: the saved config, with the
// request's ad type when it names one.
func commissionRate(cfg pricing.CostConfig, req CommitRequest) float64 {
	if req.AdType != "" {
		cfg.AdType = req.AdType
	}
	return pricing.NormalizeConfig(cfg).CommissionRate()
}

// buildSale validates req against product p, given the units of p already
// claimed by earlier lines of the same batch.
func (s *Service) buildSale(req CommitRequest, p storage.Product, claimed int, rate float64) (Receipt, error) {
	available := p.Quantity - claimed
	if req.Quantity > available {
		return Receipt{}, &RejectionError{
			Reason:      ReasonStockInsufficient,
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   req.Quantity,
			Available:   available,
		}
	}

	price := money.Price(req.UnitPrice)
	if price == 0 {
		price = p.UnitPrice
	}
	cost := money.Price(req.UnitCost)
	if cost == 0 {
		cost = p.UnitCost
	}
	channel := pricing.NormalizeLineItem(pricing.LineItem{PaymentChannel: req.PaymentChannel}).PaymentChannel
	client := strings.TrimSpace(req.ClientLabel)
	if client == "" {
		client = pricing.NoClient
	}
	origin := req.Origin
	if origin == "" {
		origin = storage.OriginPanel
	}

	total, totalCost, profit, margin := SaleAmounts(price, cost, req.Quantity, rate)
	return Receipt{
		Sale: storage.Sale{
			ID:             s.newID(),
			Timestamp:      s.now(),
			ClientLabel:    client,
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       req.Quantity,
			UnitPrice:      price,
			Total:          total,
			Cost:           totalCost,
			Profit:         profit,
			MarginPct:      margin,
			PaymentChannel: channel,
			Origin:         origin,
		},
		RemainingStock: available - req.Quantity,
	}, nil
}

// prepare validates every request before anything is written. Quantities of
// the same product are accumulated across lines.
func (s *Service) prepare(ctx context.Context, reqs []CommitRequest, batch bool) ([]Receipt, error) {
	cfg, err := s.costConfig(ctx)
	if err != nil {
		return nil, err
	}

	claimed := make(map[int64]int)
	receipts := make([]Receipt, 0, len(reqs))
	for i, req := range reqs {
		line := 0
		if batch {
			line = i + 1
		}
		if req.Quantity < 1 {
			return nil, &RejectionError{Reason: ReasonInvalidQuantity, Line: line, ProductID: req.ProductID, Requested: req.Quantity}
		}

		p, err := s.store.GetProduct(ctx, req.ProductID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &RejectionError{Reason: ReasonProductNotFound, Line: line, ProductID: req.ProductID, Requested: req.Quantity}
		}
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}

		r, err := s.buildSale(req, p, claimed[p.ID], commissionRate(cfg, req))
		if err != nil {
			var rej *RejectionError
			if errors.As(err, &rej) {
				rej.Line = line
			}
			return nil, err
		}
		if batch && req.Origin == "" {
			r.Sale.Origin = storage.OriginBatch
		}
		claimed[p.ID] += req.Quantity
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func (s *Service) reject(err error) error {
	var rej *RejectionError
	if errors.As(err, &rej) {
		s.observer.SaleRejected(string(rej.Reason))
		slog.Debug("Sale rejected", "reason", rej.Reason, "product", rej.ProductID, "line", rej.Line)
	}
	return err
}

// PreviewSale computes the receipt of req without changing anything.
func (s *Service) PreviewSale(ctx context.Context, req CommitRequest) (Receipt, error) {
	receipts, err := s.prepare(ctx, []CommitRequest{req}, false)
	if err != nil {
		return Receipt{}, err
	}
	return receipts[0], nil
}

// CommitSale validates one sale, then decrements stock and appends it to the
// history atomically.
func (s *Service) CommitSale(ctx context.Context, req CommitRequest) (Receipt, error) {
	batch, err := s.commit(ctx, []CommitRequest{req}, false)
	if err != nil {
		return Receipt{}, err
	}
	return batch.Receipts[0], nil
}

// CommitBatch commits every request or none of them. Any invalid line
// rejects the whole batch.
func (s *Service) CommitBatch(ctx context.Context, reqs []CommitRequest) (BatchReceipt, error) {
	if len(reqs) == 0 {
		return BatchReceipt{Receipts: []Receipt{}}, nil
	}
	return s.commit(ctx, reqs, true)
}

func (s *Service) commit(ctx context.Context, reqs []CommitRequest, batch bool) (BatchReceipt, error) {
	receipts, err := s.prepare(ctx, reqs, batch)
	if err != nil {
		return BatchReceipt{}, s.reject(err)
	}

	decrements := make([]storage.Decrement, len(receipts))
	for i, r := range receipts {
		decrements[i] = storage.Decrement{ProductID: r.Sale.ProductID, Quantity: r.Sale.Quantity, Sale: r.Sale}
	}
	if err := s.store.CommitSales(ctx, decrements); err != nil {
		switch {
		case errors.Is(err, storage.ErrStockInsufficient):
			return BatchReceipt{}, s.reject(&RejectionError{Reason: ReasonStockInsufficient, ProductID: decrements[0].ProductID})
		case errors.Is(err, storage.ErrNotFound):
			return BatchReceipt{}, s.reject(&RejectionError{Reason: ReasonProductNotFound, ProductID: decrements[0].ProductID})
		}
		return BatchReceipt{}, fmt.Errorf("commit sales: %w", err)
	}

	out := BatchReceipt{Receipts: receipts}
	for _, r := range receipts {
		out.Units += r.Sale.Quantity
		out.Total += r.Sale.Total
		out.Profit += r.Sale.Profit
		s.observer.SaleCommitted(r.Sale.Quantity, r.Sale.Total)
	}
	out.Total = money.Round2(out.Total)
	out.Profit = money.Round2(out.Profit)
	slog.Debug("Sales committed", "count", len(receipts), "units", out.Units, "total", out.Total)
	return out, nil
}

// Sales returns the full history in insertion order.
func (s *Service) Sales(ctx context.Context) ([]storage.Sale, error) {
	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// DeleteSale removes a sale from the history and returns its units to stock.
func (s *Service) DeleteSale(ctx context.Context, id string) (storage.Sale, error) {
	sale, err := s.store.DeleteSale(ctx, id)
	if err != nil {
		return storage.Sale{}, fmt.Errorf("delete sale: %w", err)
	}
	s.observer.SaleDeleted()
	slog.Debug("Sale deleted", "id", id, "product", sale.ProductName, "quantity", sale.Quantity)
	return sale, nil
}
