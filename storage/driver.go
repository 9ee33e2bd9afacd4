package storage

import (
	"errors"
	"strings"
)

// RawRecord is the driver-level representation of one stored record:
// a scalar/list metadata map plus free-form body text. The JSON and SQLite
// variants serialize both parts together; the Markdown variant writes the
// metadata as a front-matter block followed by the body.
type RawRecord struct {
	Meta map[string]any
	Body string
}

// Driver reads and writes single records by logical key. A write replaces
// the whole record; there is no partial persistence.
//
// Implementations are synchronous and unlocked: concurrent writers to the
// same key may interleave. That is an accepted property of this design,
// not something drivers may paper over with their own locking.
type Driver interface {
	// Load returns the record for key, or [ErrNotFound].
	Load(key string) (*RawRecord, error)

	// Save creates or replaces the record for key.
	Save(key string, rec *RawRecord) error

	// Delete removes the record for key, or returns [ErrNotFound].
	Delete(key string) error

	// List returns every stored key in lexicographic order. The snapshot
	// is taken at call time; concurrent mutation is not reflected.
	List() ([]string, error)
}

var (
	_ Driver = (*MarkdownDriver)(nil)
	_ Driver = (*JSONDriver)(nil)
	_ Driver = (*SQLiteDriver)(nil)
)

var errInvalidKey = errors.New("invalid record key")

// validateKey enforces the key grammar shared by all drivers. Keys become
// file names and primary keys, so they must be non-empty, lowercase
// slug-shaped, and free of separators. Path traversal is rejected a second
// time by the resolver for file drivers; this check keeps SQLite keys to
// the same grammar.
func validateKey(key string) error {
	if key == "" {
		return errInvalidKey
	}

	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return errInvalidKey
		}
	}

	if strings.HasPrefix(key, "-") || strings.HasSuffix(key, "-") {
		return errInvalidKey
	}

	return nil
}
