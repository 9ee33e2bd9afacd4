// Package inkpress wires the content engine together: a path resolver in
// front of all file access, a registry of per-concern SQLite databases,
// and a file-backed article repository with an optional metadata index.
//
// The Engine is the application root. It is opened once at startup and
// closed at shutdown; everything that needs database access receives the
// registry (or something built from it) explicitly. There is no global
// state.
package inkpress

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/inkpress/inkpress/content"
	"github.com/inkpress/inkpress/database"
	"github.com/inkpress/inkpress/pkg/pathsafe"
	"github.com/inkpress/inkpress/storage"
)

// Base directory names in the resolver allow-list.
const (
	baseContent = "content"
	baseData    = "data"
)

// Database concern names. One handle and one file each; never shared.
const (
	dbContentIndex = "content-index"
	dbAccounts     = "accounts"
	dbAudit        = "audit"
)

// accountsSchema is the idempotent DDL for the account concern. Auth
// flows live outside this engine; the registry still owns the database.
const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    username      TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);
`

// Engine is the assembled content engine.
type Engine struct {
	cfg      Config
	log      zerolog.Logger
	resolver *pathsafe.Resolver
	registry *database.Registry
	articles *content.Repository
	audit    *auditLog

	logFile *os.File
}

// Open builds an Engine from cfg: logger, path resolver over the content
// and data directories, database registry for the three concerns, and the
// article repository over a Markdown driver with the content index
// attached.
func Open(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}

	if err := e.initLogger(); err != nil {
		return nil, err
	}

	resolver, err := pathsafe.NewResolver(map[string]string{
		baseContent: cfg.ContentDir,
		baseData:    cfg.DataDir,
	})
	if err != nil {
		e.closeQuiet()

		return nil, err
	}

	e.resolver = resolver

	e.registry = database.NewRegistry(resolver, baseData, map[string]database.Definition{
		dbContentIndex: {File: cfg.ContentIndexFile, Schema: content.IndexSchema},
		dbAccounts:     {File: cfg.AccountsFile, Schema: accountsSchema},
		dbAudit:        {File: cfg.AuditFile, Schema: auditSchema},
	}, e.log)

	indexDB, err := e.registry.Conn(dbContentIndex)
	if err != nil {
		e.closeQuiet()

		return nil, fmt.Errorf("open content index: %w", err)
	}

	auditDB, err := e.registry.Conn(dbAudit)
	if err != nil {
		e.closeQuiet()

		return nil, fmt.Errorf("open audit database: %w", err)
	}

	e.audit = &auditLog{db: auditDB}

	driver := storage.NewMarkdownDriver(resolver, baseContent, "articles", content.MetaKeyOrder()...)

	e.articles = content.NewRepository(driver, e.log, content.WithIndex(content.NewIndex(indexDB)))

	return e, nil
}

func (e *Engine) initLogger() error {
	var w io.Writer = os.Stderr

	if e.cfg.LogPath != "" {
		f, err := os.OpenFile(e.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}

		e.logFile = f
		w = zerolog.SyncWriter(f)
	}

	level, err := zerolog.ParseLevel(e.cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	e.log = zerolog.New(w).Level(level).With().Timestamp().Logger()

	return nil
}

// Articles returns the article repository.
func (e *Engine) Articles() *content.Repository {
	return e.articles
}

// Registry returns the database registry, for callers that need a
// concern's handle by name.
func (e *Engine) Registry() *database.Registry {
	return e.registry
}

// Logger returns the engine logger.
func (e *Engine) Logger() zerolog.Logger {
	return e.log
}

// CreateArticle creates the article and records the action in the audit
// trail. The audit write uses its own database handle; the content index
// and the audit concern never share a connection.
func (e *Engine) CreateArticle(a *content.Article) error {
	if err := e.articles.Create(a); err != nil {
		return err
	}

	e.recordAudit("create", a.Slug)

	return nil
}

// SaveArticle saves the article and records the action.
func (e *Engine) SaveArticle(a *content.Article) error {
	if err := e.articles.Save(a); err != nil {
		return err
	}

	e.recordAudit("save", a.Slug)

	return nil
}

// DeleteArticle deletes the article and records the action.
func (e *Engine) DeleteArticle(slug string) error {
	if err := e.articles.Delete(slug); err != nil {
		return err
	}

	e.recordAudit("delete", slug)

	return nil
}

// recordAudit appends to the audit trail. Audit is best-effort: a failed
// append is logged, never surfaced as a content failure.
func (e *Engine) recordAudit(action, slug string) {
	if err := e.audit.record(action, slug); err != nil {
		e.log.Error().Str("action", action).Str("slug", slug).Err(err).Msg("audit append failed")
	}
}

// AuditTrail returns the most recent audit entries, newest first.
func (e *Engine) AuditTrail(limit int) ([]AuditEntry, error) {
	return e.audit.recent(limit)
}

// Close releases every database handle and the log file.
func (e *Engine) Close() error {
	err := e.registry.Close()

	if e.logFile != nil {
		if cerr := e.logFile.Close(); cerr != nil && err == nil {
			err = cerr
		}

		e.logFile = nil
	}

	return err
}

func (e *Engine) closeQuiet() {
	if e.registry != nil {
		_ = e.registry.Close()
	}

	if e.logFile != nil {
		_ = e.logFile.Close()
		e.logFile = nil
	}
}
