package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RecordsSchema is the idempotent DDL for the table backing
// [SQLiteDriver]. Register it with the database registry under the
// concern that owns record storage.
const RecordsSchema = `
CREATE TABLE IF NOT EXISTS records (
    key        TEXT PRIMARY KEY,
    meta       TEXT NOT NULL,
    body       TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_updated_at ON records (updated_at);
`

// timeLayout is the fixed-width sortable timestamp format used across the
// SQLite stores.
const timeLayout = "2006-01-02 15:04:05"

// SQLiteDriver stores whole records in a SQLite table instead of flat
// files. Metadata serializes as a JSON column; the body is its own column.
// The connection comes from the database registry; the driver never opens
// its own.
type SQLiteDriver struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDriver creates a driver over db, which must have
// [RecordsSchema] applied.
func NewSQLiteDriver(db *sql.DB) *SQLiteDriver {
	return &SQLiteDriver{db: db, now: time.Now}
}

// Load reads and decodes the record for key.
func (d *SQLiteDriver) Load(key string) (*RawRecord, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	var metaJSON, body string

	err := d.db.QueryRow(`SELECT meta, body FROM records WHERE key = ?`, key).Scan(&metaJSON, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
		}

		return nil, fmt.Errorf("load %s: %w: %w", key, ErrUnavailable, err)
	}

	meta := map[string]any{}

	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, &ParseError{Key: key, Err: err}
	}

	return &RawRecord{Meta: meta, Body: body}, nil
}

// Save creates or replaces the record for key. created_at is preserved
// across replacements.
func (d *SQLiteDriver) Save(key string, rec *RawRecord) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return &ParseError{Key: key, Err: err}
	}

	now := d.now().UTC().Format(timeLayout)

	_, err = d.db.Exec(`
		INSERT INTO records (key, meta, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			meta       = excluded.meta,
			body       = excluded.body,
			updated_at = excluded.updated_at`,
		key, string(metaJSON), rec.Body, now, now)
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", key, ErrUnavailable, err)
	}

	return nil
}

// Delete removes the record for key.
func (d *SQLiteDriver) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	res, err := d.db.Exec(`DELETE FROM records WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w: %w", key, ErrUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w: %w", key, ErrUnavailable, err)
	}

	if affected == 0 {
		return fmt.Errorf("delete %s: %w", key, ErrNotFound)
	}

	return nil
}

// List returns every stored key in lexicographic order.
func (d *SQLiteDriver) List() ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list: %w: %w", ErrUnavailable, err)
	}

	defer func() { _ = rows.Close() }()

	var keys []string

	for rows.Next() {
		var key string

		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return keys, nil
}
