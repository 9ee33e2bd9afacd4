package content

import (
	"database/sql"
	"fmt"
)

// IndexSchema is the idempotent DDL for the article metadata index.
// Register it with the database registry under the content-index concern.
//
// The index is a derived view of the flat files, never the source of
// truth. Dropping the database and calling [Repository.Reindex] restores
// it completely.
const IndexSchema = `
CREATE TABLE IF NOT EXISTS articles (
    slug         TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    category     TEXT NOT NULL DEFAULT '',
    published    INTEGER NOT NULL DEFAULT 0,
    published_at TEXT NOT NULL DEFAULT '',
    featured     INTEGER NOT NULL DEFAULT 0,
    updated_at   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles (category);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at);
`

// Index mirrors article metadata into SQLite for fast listings without
// touching the flat files. Kept in sync by the repository on every write;
// rebuilt wholesale by [Index.Rebuild].
type Index struct {
	db *sql.DB
}

// NewIndex creates an Index over db, which must have [IndexSchema]
// applied.
func NewIndex(db *sql.DB) *Index {
	return &Index{db: db}
}

// Summary is one index row.
type Summary struct {
	Slug        string
	Title       string
	Category    string
	Published   bool
	PublishedAt string
	Featured    bool
}

// Upsert inserts or replaces the index row for the article.
func (ix *Index) Upsert(a *Article) error {
	_, err := ix.db.Exec(`
		INSERT INTO articles (slug, title, category, published, published_at, featured, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title        = excluded.title,
			category     = excluded.category,
			published    = excluded.published,
			published_at = excluded.published_at,
			featured     = excluded.featured,
			updated_at   = excluded.updated_at`,
		a.Slug, a.Title, a.Category, boolInt(a.Published), a.PublishedAt, boolInt(a.Featured), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index upsert %s: %w", a.Slug, err)
	}

	return nil
}

// Remove deletes the index row for slug. Removing an unindexed slug is
// not an error.
func (ix *Index) Remove(slug string) error {
	if _, err := ix.db.Exec(`DELETE FROM articles WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index remove %s: %w", slug, err)
	}

	return nil
}

// Rebuild replaces the whole index with rows for the given articles, in
// one transaction.
func (ix *Index) Rebuild(articles []*Article) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("rebuild: begin: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM articles`); err != nil {
		return fmt.Errorf("rebuild: clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO articles (slug, title, category, published, published_at, featured, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("rebuild: prepare: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	for _, a := range articles {
		_, err := stmt.Exec(a.Slug, a.Title, a.Category, boolInt(a.Published), a.PublishedAt, boolInt(a.Featured), a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("rebuild: insert %s: %w", a.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rebuild: commit: %w", err)
	}

	return nil
}

// Summaries returns every index row, newest published first, slug as
// tiebreak.
func (ix *Index) Summaries() ([]Summary, error) {
	rows, err := ix.db.Query(`
		SELECT slug, title, category, published, published_at, featured
		FROM articles
		ORDER BY published_at DESC, slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("index summaries: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Summary

	for rows.Next() {
		var (
			s                   Summary
			published, featured int
		)

		if err := rows.Scan(&s.Slug, &s.Title, &s.Category, &published, &s.PublishedAt, &featured); err != nil {
			return nil, fmt.Errorf("index summaries: scan: %w", err)
		}

		s.Published = published == 1
		s.Featured = featured == 1

		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index summaries: rows: %w", err)
	}

	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
