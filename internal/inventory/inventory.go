// Package inventory manages products and turns confirmed sales into stock
// decrements plus history entries.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danieldesouzalongo/01gestao/internal/money"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

// LowStockThreshold is the quantity below which a product is critical.
const LowStockThreshold = 5

const defaultProductName = "Sem nome"

// Observer receives sale events, typically a metrics registry.
type Observer interface {
	SaleCommitted(quantity int, total float64)
	SaleRejected(reason string)
	SaleDeleted()
}

type nopObserver struct{}

func (nopObserver) SaleCommitted(int, float64) {}
func (nopObserver) SaleRejected(string)        {}
func (nopObserver) SaleDeleted()               {}

// Service coordinates product edits and sale commits over a Store.
type Service struct {
	store    storage.Store
	now      func() time.Time
	newID    func() string
	observer Observer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the sale id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithObserver registers an observer for sale events.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeProduct trims the name and replaces negative numbers with 0.
func NormalizeProduct(p storage.Product) storage.Product {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = defaultProductName
	}
	if p.Quantity < 0 {
		p.Quantity = 0
	}
	if p.UnitWeightGrams < 0 {
		p.UnitWeightGrams = 0
	}
	p.UnitCost = money.Price(p.UnitCost)
	p.UnitPrice = money.Price(p.UnitPrice)
	return p
}

func (s *Service) Products(ctx context.Context) ([]storage.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) AddProduct(ctx context.Context, p storage.Product) (storage.Product, error) {
	created, err := s.store.CreateProduct(ctx, NormalizeProduct(p))
	if err != nil {
		return storage.Product{}, fmt.Errorf("add product: %w", err)
	}
	slog.Debug("Product added", "id", created.ID, "name", created.Name)
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p storage.Product) (storage.Product, error) {
	p = NormalizeProduct(p)
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return storage.Product{}, mapNotFound(fmt.Errorf("update product: %w", err))
	}
	return p, nil
}

func (s *Service) RemoveProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return mapNotFound(fmt.Errorf("remove product: %w", err))
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrProductNotFound, err)
	}
	return err
}

// StockSummary is the inventory overview.
type StockSummary struct {
	Products   int               `json:"products"`
	TotalUnits int               `json:"totalUnits"`
	StockValue float64           `json:"stockValue"`
	LowStock   []storage.Product `json:"lowStock"`
}

func (s *Service) Summary(ctx context.Context) (StockSummary, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return StockSummary{}, fmt.Errorf("list products: %w", err)
	}
	return StockSummary{
		Products:   len(products),
		TotalUnits: TotalUnits(products),
		StockValue: StockValue(products),
		LowStock:   LowStock(products, LowStockThreshold),
	}, nil
}

// LowStock returns the products holding fewer than threshold units.
func LowStock(products []storage.Product, threshold int) []storage.Product {
	low := []storage.Product{}
	for _, p := range products {
		if p.Quantity < threshold {
			low = append(low, p)
		}
	}
	return low
}

// StockValue is the cost of every unit in stock.
func StockValue(products []storage.Product) float64 {
	var total float64
	for _, p := range products {
		total += p.UnitCost * float64(p.Quantity)
	}
	return money.Round2(total)
}

func TotalUnits(products []storage.Product) int {
	var n int
	for _, p := range products {
		n += p.Quantity
	}
	return n
}

// StockLevel labels a quantity for display.
type StockLevel string

const (
	StockOK    StockLevel = "ok"
	StockLow   StockLevel = "low"
	StockEmpty StockLevel = "empty"
)

func Level(quantity int) StockLevel {
	switch {
	case quantity > LowStockThreshold:
		return StockOK
	case quantity > 0:
		return StockLow
	default:
		return StockEmpty
	}
}
