// Package kv implements storage.Store on a Pebble directory.
//
// The layout mirrors a flat key/value document store: each collection lives
// under one key as a JSON array, and every mutation that touches more than one
// key is written through a single batch.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

var (
	keyProducts      = []byte("products")
	keySales         = []byte("sales")
	keyConfig        = []byte("config")
	keyNextProductID = []byte("meta/next_product_id")
)

// Store is the Pebble storage backend.
type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the Pebble directory at dir.
func Open(dir string) (*Store, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// getJSON decodes the value at key into dst and reports whether it existed.
func (s *Store) getJSON(key []byte, dst any) (bool, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(b *pebble.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := b.Set(key, data, nil); err != nil {
		return fmt.Errorf("batch set %s: %w", key, err)
	}
	return nil
}

// write builds one batch with fn and commits it synchronously.
func (s *Store) write(fn func(b *pebble.Batch) error) error {
	b := s.db.NewBatch()
	defer b.Close()

	if err := fn(b); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	return nil
}

func (s *Store) products() ([]storage.Product, error) {
	products := []storage.Product{}
	if _, err := s.getJSON(keyProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) sales() ([]storage.Sale, error) {
	sales := []storage.Sale{}
	if _, err := s.getJSON(keySales, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) nextProductID() (int64, error) {
	v, closer, err := s.db.Get(keyNextProductID)
	if errors.Is(err, pebble.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pebble get %s: %w", keyNextProductID, err)
	}
	defer closer.Close()

	id, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", keyNextProductID, err)
	}
	return id, nil
}

func indexOfProduct(products []storage.Product, id int64) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListProducts(ctx context.Context) ([]storage.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products()
}

func (s *Store) GetProduct(ctx context.Context, id int64) (storage.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return storage.Product{}, err
	}
	i := indexOfProduct(products, id)
	if i < 0 {
		return storage.Product{}, fmt.Errorf("product %d: %w", id, storage.ErrNotFound)
	}
	return products[i], nil
}

func (s *Store) CreateProduct(ctx context.Context, p storage.Product) (storage.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return storage.Product{}, err
	}
	id, err := s.nextProductID()
	if err != nil {
		return storage.Product{}, err
	}
	p.ID = id
	products = append(products, p)

	err = s.write(func(b *pebble.Batch) error {
		if err := setJSON(b, keyProducts, products); err != nil {
			return err
		}
		return b.Set(keyNextProductID, []byte(strconv.FormatInt(id+1, 10)), nil)
	})
	if err != nil {
		return storage.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p storage.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return err
	}
	i := indexOfProduct(products, p.ID)
	if i < 0 {
		return fmt.Errorf("product %d: %w", p.ID, storage.ErrNotFound)
	}
	products[i] = p
	return s.write(func(b *pebble.Batch) error { return setJSON(b, keyProducts, products) })
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return err
	}
	i := indexOfProduct(products, id)
	if i < 0 {
		return fmt.Errorf("product %d: %w", id, storage.ErrNotFound)
	}
	products = append(products[:i], products[i+1:]...)
	return s.write(func(b *pebble.Batch) error { return setJSON(b, keyProducts, products) })
}

// ListSales returns the history in insertion order.
func (s *Store) ListSales(ctx context.Context) ([]storage.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sales()
}

// CommitSales validates every decrement against the current stock, then
// writes the new product list and the grown history in one batch.
func (s *Store) CommitSales(ctx context.Context, decrements []storage.Decrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return err
	}
	sales, err := s.sales()
	if err != nil {
		return err
	}

	for _, d := range decrements {
		i := indexOfProduct(products, d.ProductID)
		if i < 0 {
			return fmt.Errorf("product %d: %w", d.ProductID, storage.ErrNotFound)
		}
		if products[i].Quantity < d.Quantity {
			return fmt.Errorf("product %d: %w", d.ProductID, storage.ErrStockInsufficient)
		}
		products[i].Quantity -= d.Quantity
		sales = append(sales, d.Sale)
	}

	return s.write(func(b *pebble.Batch) error {
		if err := setJSON(b, keyProducts, products); err != nil {
			return err
		}
		return setJSON(b, keySales, sales)
	})
}

// DeleteSale removes a sale and puts its units back in stock.
func (s *Store) DeleteSale(ctx context.Context, id string) (storage.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.sales()
	if err != nil {
		return storage.Sale{}, err
	}
	idx := -1
	for i, sale := range sales {
		if sale.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return storage.Sale{}, fmt.Errorf("sale %s: %w", id, storage.ErrNotFound)
	}
	sale := sales[idx]
	sales = append(sales[:idx], sales[idx+1:]...)

	products, err := s.products()
	if err != nil {
		return storage.Sale{}, err
	}
	i := indexOfProduct(products, sale.ProductID)
	if i < 0 {
		for j, p := range products {
			if p.Name == sale.ProductName {
				i = j
				break
			}
		}
	}
	if i >= 0 {
		products[i].Quantity += sale.Quantity
	}

	err = s.write(func(b *pebble.Batch) error {
		if err := setJSON(b, keyProducts, products); err != nil {
			return err
		}
		return setJSON(b, keySales, sales)
	})
	if err != nil {
		return storage.Sale{}, err
	}
	return sale, nil
}

func (s *Store) LoadCostConfig(ctx context.Context) (pricing.CostConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg pricing.CostConfig
	ok, err := s.getJSON(keyConfig, &cfg)
	if err != nil || !ok {
		return pricing.CostConfig{}, false, err
	}
	return cfg, true, nil
}

func (s *Store) SaveCostConfig(ctx context.Context, cfg pricing.CostConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(func(b *pebble.Batch) error { return setJSON(b, keyConfig, cfg) })
}

func (s *Store) Export(ctx context.Context) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products()
	if err != nil {
		return storage.Snapshot{}, err
	}
	sales, err := s.sales()
	if err != nil {
		return storage.Snapshot{}, err
	}
	cfg := pricing.DefaultCostConfig()
	if _, err := s.getJSON(keyConfig, &cfg); err != nil {
		return storage.Snapshot{}, err
	}

	return storage.Snapshot{
		CreatedAt: time.Now().UTC(),
		Products:  products,
		Sales:     sales,
		Config:    cfg,
	}, nil
}

// Import replaces every key with the snapshot contents in one batch.
func (s *Store) Import(ctx context.Context, snap storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := snap.Products
	if products == nil {
		products = []storage.Product{}
	}
	sales := snap.Sales
	if sales == nil {
		sales = []storage.Sale{}
	}
	var next int64 = 1
	for _, p := range products {
		if p.ID >= next {
			next = p.ID + 1
		}
	}

	return s.write(func(b *pebble.Batch) error {
		if err := setJSON(b, keyProducts, products); err != nil {
			return err
		}
		if err := setJSON(b, keySales, sales); err != nil {
			return err
		}
		if err := setJSON(b, keyConfig, snap.Config); err != nil {
			return err
		}
		return b.Set(keyNextProductID, []byte(strconv.FormatInt(next, 10)), nil)
	})
}
