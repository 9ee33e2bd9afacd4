package inkpress

import (
	"database/sql"
	"fmt"
	"time"
)

// auditSchema is the idempotent DDL for the audit concern.
const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    at     TEXT NOT NULL,
    action TEXT NOT NULL,
    slug   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_at ON audit_entries (at);
`

// AuditEntry is one recorded content action.
type AuditEntry struct {
	At     string
	Action string
	Slug   string
}

// auditLog appends content actions to the audit database. It holds its
// own registry handle; composing audit data with content data happens in
// application code, never through a shared connection.
type auditLog struct {
	db *sql.DB
}

func (l *auditLog) record(action, slug string) error {
	at := time.Now().UTC().Format("2006-01-02 15:04:05")

	if _, err := l.db.Exec(`INSERT INTO audit_entries (at, action, slug) VALUES (?, ?, ?)`, at, action, slug); err != nil {
		return fmt.Errorf("audit record: %w", err)
	}

	return nil
}

func (l *auditLog) recent(limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(`SELECT at, action, slug FROM audit_entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit recent: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []AuditEntry

	for rows.Next() {
		var entry AuditEntry

		if err := rows.Scan(&entry.At, &entry.Action, &entry.Slug); err != nil {
			return nil, fmt.Errorf("audit recent: scan: %w", err)
		}

		out = append(out, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit recent: rows: %w", err)
	}

	return out, nil
}
