package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"storefront/internal"
)

var ErrNotFound = errors.New("order not found")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open opens (and creates) the local SQLite order store.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return initDB(conn, dialectSQLite)
}

// OpenPostgres opens the order store on a PostgreSQL database through pgx.
func OpenPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return initDB(conn, dialectPostgres)
}

// OpenFromConfig prefers DATABASE_URL and falls back to the SQLite file.
func OpenFromConfig(databaseURL, dbPath string) (*DB, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return OpenPostgres(databaseURL)
	}
	return Open(dbPath)
}

func initDB(conn *sql.DB, d dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: d}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	statements := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  items TEXT,
  subtotal DOUBLE PRECISION,
  total DOUBLE PRECISION,
  status TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_updated_at ON orders(updated_at)`,
		`
CREATE TABLE IF NOT EXISTS runs (
  trace_id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  counts_json TEXT NOT NULL,
  timings_json TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`
CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	}

	for _, stmt := range statements {
		if _, err := d.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) UpsertOrders(orders []internal.OrderRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(d.rebind(`
INSERT INTO orders (
  id, items, subtotal, total, status,
  customer_name, customer_email, customer_phone, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  items=excluded.items,
  subtotal=excluded.subtotal,
  total=excluded.total,
  status=excluded.status,
  customer_name=excluded.customer_name,
  customer_email=excluded.customer_email,
  customer_phone=excluded.customer_phone,
  created_at=excluded.created_at,
  updated_at=excluded.updated_at
`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		if strings.TrimSpace(o.ID) == "" {
			return errors.New("order without id")
		}
		items, err := encodeItems(o.Items)
		if err != nil {
			return fmt.Errorf("encode items of order %s: %w", o.ID, err)
		}
		if _, err := stmt.Exec(
			o.ID, items, o.Subtotal, o.Total, o.Status,
			o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// encodeItems stores strings verbatim (JSON text and legacy SKUs alike) and
// everything else as JSON.
func encodeItems(items any) (*string, error) {
	switch t := items.(type) {
	case nil:
		return nil, nil
	case string:
		return &t, nil
	case json.RawMessage:
		s := string(t)
		return &s, nil
	case []byte:
		s := string(t)
		return &s, nil
	}
	blob, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(blob)
	return &s, nil
}

const orderColumns = `id, items, subtotal, total, status, customer_name, customer_email, customer_phone, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (internal.OrderRecord, error) {
	var o internal.OrderRecord
	var items sql.NullString
	var subtotal, total sql.NullFloat64
	if err := s.Scan(
		&o.ID, &items, &subtotal, &total, &o.Status,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return internal.OrderRecord{}, err
	}
	if items.Valid {
		o.Items = items.String
	}
	if subtotal.Valid {
		o.Subtotal = &subtotal.Float64
	}
	if total.Valid {
		o.Total = &total.Float64
	}
	return o, nil
}

func (d *DB) GetOrder(id string) (*internal.OrderRecord, error) {
	row := d.conn.QueryRow(d.rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) MustOrder(id string) (internal.OrderRecord, error) {
	o, err := d.GetOrder(id)
	if err != nil {
		return internal.OrderRecord{}, err
	}
	if o == nil {
		return internal.OrderRecord{}, fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	return *o, nil
}

func (d *DB) ListOrders(limit int) ([]internal.OrderRecord, error) {
	return d.queryOrders(`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id ASC LIMIT ?`, limit)
}

func (d *DB) ListOrdersByStatus(status string, limit int) ([]internal.OrderRecord, error) {
	return d.queryOrders(`SELECT `+orderColumns+` FROM orders WHERE status = ? ORDER BY created_at DESC, id ASC LIMIT ?`, status, limit)
}

// ListOrdersUpdatedAfter returns one page of rows whose updated_at sorts after
// cursor, oldest first.
func (d *DB) ListOrdersUpdatedAfter(cursor string, limit, offset int) ([]internal.OrderRecord, error) {
	return d.queryOrders(`SELECT `+orderColumns+` FROM orders WHERE updated_at > ? ORDER BY updated_at ASC, id ASC LIMIT ? OFFSET ?`, cursor, limit, offset)
}

func (d *DB) queryOrders(query string, args ...any) ([]internal.OrderRecord, error) {
	rows, err := d.conn.Query(d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OrderRecord
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID, kind string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(d.rebind(`INSERT INTO runs (trace_id, kind, timings_json, counts_json) VALUES (?, ?, ?, ?)`), traceID, kind, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(d.rebind(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`), key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(d.rebind(`SELECT value FROM metadata WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
