// Package storage defines the persisted records of the application and the
// Store interface implemented by the sqlite and kv backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
)

var (
	// ErrNotFound is returned when a product or sale does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStockInsufficient is returned by CommitSale when the product holds
	// fewer units than the sale needs at commit time.
	ErrStockInsufficient = errors.New("stock insufficient")
)

// Origin tells which screen recorded a sale.
type Origin string

const (
	OriginLine  Origin = "line"
	OriginPanel Origin = "panel"
	OriginBatch Origin = "batch"
)

// Product represents one inventory entry.
type Product struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitCost        float64 `json:"unitCost"`
	UnitWeightGrams int     `json:"unitWeightGrams"`
	UnitPrice       float64 `json:"unitPrice"`
}

// Sale represents one committed sale in the history.
type Sale struct {
	ID             string                 `json:"id"`
	Timestamp      time.Time              `json:"timestamp"`
	ClientLabel    string                 `json:"clientLabel"`
	ProductID      int64                  `json:"productId"`
	ProductName    string                 `json:"productName"`
	Quantity       int                    `json:"quantity"`
	UnitPrice      float64                `json:"unitPrice"`
	Total          float64                `json:"total"`
	Cost           float64                `json:"cost"`
	Profit         float64                `json:"profit"`
	MarginPct      float64                `json:"marginPct"`
	PaymentChannel pricing.PaymentChannel `json:"paymentChannel"`
	Origin         Origin                 `json:"origin"`
}

// Decrement is one stock reduction applied together with its sale.
type Decrement struct {
	ProductID int64
	Quantity  int
	Sale      Sale
}

// Snapshot is the backup document holding the whole persisted state.
type Snapshot struct {
	CreatedAt time.Time          `json:"createdAt"`
	Products  []Product          `json:"products"`
	Sales     []Sale             `json:"sales"`
	Config    pricing.CostConfig `json:"config"`
}

// Store persists products, sales and the cost configuration.
//
// CommitSales applies every decrement and appends every sale atomically: if
// any product is missing or short on stock nothing is written.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListSales(ctx context.Context) ([]Sale, error)
	CommitSales(ctx context.Context, decrements []Decrement) error
	// DeleteSale removes the sale and returns its quantity to the product
	// stock, matching by product id first and by name otherwise. The removed
	// sale is returned.
	DeleteSale(ctx context.Context, id string) (Sale, error)

	// LoadCostConfig returns ok=false when no configuration was saved yet.
	LoadCostConfig(ctx context.Context) (cfg pricing.CostConfig, ok bool, err error)
	SaveCostConfig(ctx context.Context, cfg pricing.CostConfig) error

	Export(ctx context.Context) (Snapshot, error)
	// Import replaces the whole persisted state with s.
	Import(ctx context.Context, s Snapshot) error

	Close() error
}
