// Package sqlite implements storage.Store on a SQLite file migrated with goose.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danieldesouzalongo/01gestao/internal/db"
	"github.com/danieldesouzalongo/01gestao/internal/migrations"
	"github.com/danieldesouzalongo/01gestao/internal/pricing"
	"github.com/danieldesouzalongo/01gestao/internal/storage"
)

const timeLayout = time.RFC3339Nano

// Store is the relational storage backend.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(database); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

// DB exposes the underlying handle for seeding and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const productColumns = `id, name, quantity, unit_cost, unit_weight_grams, unit_price`

func scanProduct(sc interface{ Scan(...any) error }) (storage.Product, error) {
	var p storage.Product
	err := sc.Scan(&p.ID, &p.Name, &p.Quantity, &p.UnitCost, &p.UnitWeightGrams, &p.UnitPrice)
	return p, err
}

func (s *Store) ListProducts(ctx context.Context) ([]storage.Product, error) {
	return listProducts(ctx, s.db)
}

func listProducts(ctx context.Context, q queryer) ([]storage.Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []storage.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (storage.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Product{}, fmt.Errorf("product %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p storage.Product) (storage.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, quantity, unit_cost, unit_weight_grams, unit_price)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Quantity, p.UnitCost, p.UnitWeightGrams, p.UnitPrice)
	if err != nil {
		return storage.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.Product{}, fmt.Errorf("read product id: %w", err)
	}
	p.ID = id
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p storage.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, quantity = ?, unit_cost = ?, unit_weight_grams = ?, unit_price = ?
		WHERE id = ?
	`, p.Name, p.Quantity, p.UnitCost, p.UnitWeightGrams, p.UnitPrice, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(res, "product", p.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(res, "product", id)
}

func requireAffected(res sql.Result, kind string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

const saleColumns = `id, created_at, client_label, product_id, product_name, quantity,
	unit_price, total, cost, profit, margin_pct, payment_channel, origin`

func scanSale(sc interface{ Scan(...any) error }) (storage.Sale, error) {
	var (
		sale      storage.Sale
		createdAt string
		channel   string
		origin    string
	)
	if err := sc.Scan(&sale.ID, &createdAt, &sale.ClientLabel, &sale.ProductID, &sale.ProductName,
		&sale.Quantity, &sale.UnitPrice, &sale.Total, &sale.Cost, &sale.Profit, &sale.MarginPct,
		&channel, &origin); err != nil {
		return storage.Sale{}, err
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return storage.Sale{}, fmt.Errorf("parse sale timestamp %q: %w", createdAt, err)
	}
	sale.Timestamp = ts
	sale.PaymentChannel = pricing.PaymentChannel(channel)
	sale.Origin = storage.Origin(origin)
	return sale, nil
}

// ListSales returns the history in insertion order.
func (s *Store) ListSales(ctx context.Context) ([]storage.Sale, error) {
	return listSales(ctx, s.db)
}

func listSales(ctx context.Context, q queryer) ([]storage.Sale, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := []storage.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func insertSale(ctx context.Context, q queryer, sale storage.Sale) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sale.ID, sale.Timestamp.UTC().Format(timeLayout), sale.ClientLabel, sale.ProductID, sale.ProductName,
		sale.Quantity, sale.UnitPrice, sale.Total, sale.Cost, sale.Profit, sale.MarginPct,
		string(sale.PaymentChannel), string(sale.Origin)); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CommitSales decrements stock and appends the sales in one transaction.
func (s *Store) CommitSales(ctx context.Context, decrements []storage.Decrement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}

	for _, d := range decrements {
		if err := decrementStock(ctx, tx, d.ProductID, d.Quantity); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := insertSale(ctx, tx, d.Sale); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sales transaction: %w", err)
	}
	return nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, productID int64, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?
	`, qty, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("check product existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("product %d: %w", productID, storage.ErrNotFound)
	}
	return fmt.Errorf("product %d: %w", productID, storage.ErrStockInsufficient)
}

// DeleteSale removes a sale and puts its units back in stock.
func (s *Store) DeleteSale(ctx context.Context, id string) (storage.Sale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Sale{}, fmt.Errorf("begin delete transaction: %w", err)
	}

	sale, err := scanSale(tx.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return storage.Sale{}, fmt.Errorf("sale %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		_ = tx.Rollback()
		return storage.Sale{}, fmt.Errorf("query sale: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return storage.Sale{}, fmt.Errorf("delete sale: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE products SET quantity = quantity + ? WHERE id = ?`, sale.Quantity, sale.ProductID)
	if err != nil {
		_ = tx.Rollback()
		return storage.Sale{}, fmt.Errorf("restore stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + ?
			WHERE id = (SELECT id FROM products WHERE name = ? ORDER BY id LIMIT 1)
		`, sale.Quantity, sale.ProductName); err != nil {
			_ = tx.Rollback()
			return storage.Sale{}, fmt.Errorf("restore stock by name: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Sale{}, fmt.Errorf("commit delete transaction: %w", err)
	}
	return sale, nil
}

func (s *Store) LoadCostConfig(ctx context.Context) (pricing.CostConfig, bool, error) {
	return loadCostConfig(ctx, s.db)
}

func loadCostConfig(ctx context.Context, q queryer) (pricing.CostConfig, bool, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM cost_config WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.CostConfig{}, false, nil
	}
	if err != nil {
		return pricing.CostConfig{}, false, fmt.Errorf("query cost config: %w", err)
	}

	var cfg pricing.CostConfig
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		return pricing.CostConfig{}, false, fmt.Errorf("decode cost config: %w", err)
	}
	return cfg, true, nil
}

func (s *Store) SaveCostConfig(ctx context.Context, cfg pricing.CostConfig) error {
	return saveCostConfig(ctx, s.db, cfg)
}

func saveCostConfig(ctx context.Context, q queryer, cfg pricing.CostConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cost config: %w", err)
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO cost_config (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(body), time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("save cost config: %w", err)
	}
	return nil
}

// Export reads the whole state inside one read transaction.
func (s *Store) Export(ctx context.Context) (storage.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("begin export transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := listProducts(ctx, tx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	sales, err := listSales(ctx, tx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	cfg, ok, err := loadCostConfig(ctx, tx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	if !ok {
		cfg = pricing.DefaultCostConfig()
	}

	return storage.Snapshot{
		CreatedAt: time.Now().UTC(),
		Products:  products,
		Sales:     sales,
		Config:    cfg,
	}, nil
}

// Import replaces products, sales and config with the snapshot contents.
func (s *Store) Import(ctx context.Context, snap storage.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}

	if err := importSnapshot(ctx, tx, snap); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	return nil
}

func importSnapshot(ctx context.Context, tx *sql.Tx, snap storage.Snapshot) error {
	for _, table := range []string{"sales", "products"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, quantity, unit_cost, unit_weight_grams, unit_price)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Quantity, p.UnitCost, p.UnitWeightGrams, p.UnitPrice); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}
	for _, sale := range snap.Sales {
		if err := insertSale(ctx, tx, sale); err != nil {
			return err
		}
	}
	return saveCostConfig(ctx, tx, snap.Config)
}
