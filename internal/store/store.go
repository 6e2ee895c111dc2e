// Package store implements the SQLite backing store for orders, products
// and attachments. It is the storage collaborator behind the attachment
// resolver: the enrichment path only reads from it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"orderdocs/internal/types"
)

// Store wraps a single SQLite database holding the sales and attachment
// tables. A single connection is used; SQLite serializes writers anyway.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	log    *zap.Logger
}

// New opens (or creates) the SQLite database at the given path and
// initializes the schema. Pass ":memory:" for an ephemeral store.
func New(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.Debug("failed to enable sqlite foreign_keys", zap.Error(err))
	}

	s := &Store{db: db, dbPath: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("store initialized", zap.String("path", path))
	return s, nil
}

// initialize creates the schema if it does not exist yet.
func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS product_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id INTEGER NOT NULL REFERENCES product_templates(id),
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			customer TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL REFERENCES orders(id),
			product_id INTEGER NOT NULL REFERENCES products(id),
			quantity REAL NOT NULL DEFAULT 1,
			unit_price REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			owner_model TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			mime_type TEXT NOT NULL,
			encoding TEXT NOT NULL DEFAULT 'raw',
			payload BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_owner ON attachments(owner_model, owner_id, mime_type)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Order loads a sales order with its line items, ordered by line id.
func (s *Store) Order(ctx context.Context, id int64) (*types.SaleOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := &types.SaleOrder{ID: id}
	row := s.db.QueryRowContext(ctx,
		"SELECT name, customer FROM orders WHERE id = ?", id)
	if err := row.Scan(&order.Name, &order.Customer); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %d not found", id)
		}
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, quantity, unit_price
		 FROM order_lines WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := types.OrderLine{OrderID: id}
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return order, rows.Err()
}

// ProductTemplateIDs maps product ids to their owning template ids.
// Unknown product ids are simply absent from the result.
func (s *Store) ProductTemplateIDs(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	if len(productIDs) == 0 {
		return map[int64]int64{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(
		"SELECT id, template_id FROM products WHERE id IN (%s)",
		placeholders(len(productIDs)))
	rows, err := s.db.QueryContext(ctx, query, int64Args(productIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64, len(productIDs))
	for rows.Next() {
		var id, tmpl int64
		if err := rows.Scan(&id, &tmpl); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out[id] = tmpl
	}
	return out, rows.Err()
}

// SearchAttachments returns attachments owned by the given model whose
// owner id is in ownerIDs and whose mime type matches exactly. Results
// are ordered by primary key so merge order is deterministic.
func (s *Store) SearchAttachments(ctx context.Context, ownerModel string, ownerIDs []int64, mimeType string) ([]types.Attachment, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(
		`SELECT id, name, owner_model, owner_id, mime_type, encoding, payload
		 FROM attachments
		 WHERE owner_model = ? AND mime_type = ? AND owner_id IN (%s)
		 ORDER BY id`,
		placeholders(len(ownerIDs)))

	args := append([]interface{}{ownerModel, mimeType}, int64Args(ownerIDs)...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search attachments: %w", err)
	}
	defer rows.Close()

	var out []types.Attachment
	for rows.Next() {
		var att types.Attachment
		var encoding string
		if err := rows.Scan(&att.ID, &att.Name, &att.OwnerModel, &att.OwnerID,
			&att.MimeType, &encoding, &att.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		if encoding == "base64" {
			att.Kind = types.PayloadBase64
		} else {
			att.Kind = types.PayloadRaw
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

// InsertTemplate inserts a product template and returns its id.
func (s *Store) InsertTemplate(ctx context.Context, name string) (int64, error) {
	return s.insert(ctx, "INSERT INTO product_templates (name) VALUES (?)", name)
}

// InsertProduct inserts a product variant and returns its id.
func (s *Store) InsertProduct(ctx context.Context, templateID int64, name string) (int64, error) {
	return s.insert(ctx, "INSERT INTO products (template_id, name) VALUES (?, ?)", templateID, name)
}

// InsertOrder inserts a sales order and returns its id.
func (s *Store) InsertOrder(ctx context.Context, name, customer string) (int64, error) {
	return s.insert(ctx, "INSERT INTO orders (name, customer) VALUES (?, ?)", name, customer)
}

// InsertOrderLine inserts a line item and returns its id.
func (s *Store) InsertOrderLine(ctx context.Context, orderID, productID int64, qty, price float64) (int64, error) {
	return s.insert(ctx,
		"INSERT INTO order_lines (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)",
		orderID, productID, qty, price)
}

// InsertAttachment inserts an attachment record and returns its id.
// Kind selects how the payload column is tagged, not how it is stored:
// the payload bytes go in verbatim either way.
func (s *Store) InsertAttachment(ctx context.Context, att types.Attachment) (int64, error) {
	encoding := "raw"
	if att.Kind == types.PayloadBase64 {
		encoding = "base64"
	}
	return s.insert(ctx,
		`INSERT INTO attachments (name, owner_model, owner_id, mime_type, encoding, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		att.Name, att.OwnerModel, att.OwnerID, att.MimeType, encoding, att.Payload)
}

func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}
	return res.LastInsertId()
}

// placeholders builds "?, ?, ?" for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
