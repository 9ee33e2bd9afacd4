// Package database owns one SQLite connection per logical concern.
//
// Each concern (content index, account data, audit data) gets its own
// named handle and its own database file. Handles are opened lazily on
// first use, run their schema idempotently, and stay open until the
// registry closes. There is no default handle and no sharing: a caller
// that needs two concerns asks for both by name and composes results in
// application code. ATTACH and cross-handle joins are off the table.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"github.com/inkpress/inkpress/storage"
)

// ErrUnknownDatabase indicates the requested database name was never
// registered.
var ErrUnknownDatabase = errors.New("unknown database")

// sqliteBusyTimeout is how long a writer waits on a locked database
// before SQLITE_BUSY surfaces, in milliseconds.
const sqliteBusyTimeout = 5000

// Definition declares one logical database: its file name (relative to
// the registry's base directory) and the idempotent DDL run on first
// connection. The DDL must be safe to execute on every open
// (CREATE TABLE IF NOT EXISTS and friends).
type Definition struct {
	File   string
	Schema string
}

// Registry maps logical database names to lazily opened SQLite handles.
type Registry struct {
	resolver storage.PathResolver
	base     string
	defs     map[string]Definition
	log      zerolog.Logger

	mu    sync.Mutex
	conns map[string]*sql.DB
}

// NewRegistry creates a registry. Database files live under the named
// base directory of resolver; defs maps concern names to definitions.
func NewRegistry(resolver storage.PathResolver, base string, defs map[string]Definition, log zerolog.Logger) *Registry {
	return &Registry{
		resolver: resolver,
		base:     base,
		defs:     defs,
		log:      log,
		conns:    make(map[string]*sql.DB),
	}
}

// Names returns the registered database names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}

	return names
}

// Conn returns the handle for the named database, opening and
// initializing it on first use. The same *sql.DB is returned on every
// subsequent call.
//
// Returns [ErrUnknownDatabase] for unregistered names and a
// [storage.UnavailableError] when the file or its directory cannot be
// created or written.
func (r *Registry) Conn(name string) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.conns[name]; ok {
		return db, nil
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}

	db, err := r.open(name, def)
	if err != nil {
		return nil, err
	}

	r.conns[name] = db

	return db, nil
}

func (r *Registry) open(name string, def Definition) (*sql.DB, error) {
	token, err := r.resolver.Resolve(r.base, def.File)
	if err != nil {
		return nil, fmt.Errorf("database %q: %w", name, err)
	}

	path := token.Path()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storage.Unavailable("open database "+name, path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storage.Unavailable("open database "+name, path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, storage.Unavailable("open database "+name, path, err)
	}

	if err := applyPragmas(db); err != nil {
		_ = db.Close()

		return nil, storage.Unavailable("configure database "+name, path, err)
	}

	if def.Schema != "" {
		if _, err := db.Exec(def.Schema); err != nil {
			_ = db.Close()

			return nil, storage.Unavailable("initialize database "+name, path, err)
		}
	}

	r.log.Debug().Str("database", name).Str("path", path).Msg("database opened")

	return db, nil
}

// applyPragmas tunes the handle for an embedded single-writer store with
// concurrent readers: WAL journaling, NORMAL synchronous (safe under
// WAL), foreign keys on, in-memory temp store, and a busy timeout so
// writers wait instead of failing with SQLITE_BUSY.
func applyPragmas(db *sql.DB) error {
	_, err := db.Exec(fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;
		PRAGMA temp_store = MEMORY;
	`, sqliteBusyTimeout))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	return nil
}

// Close closes every open handle. The registry is unusable afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for name, db := range r.conns {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}

		delete(r.conns, name)
	}

	return errors.Join(errs...)
}
