// Package pathsafe maps caller-supplied relative paths onto a fixed
// allow-list of base directories and refuses anything that could escape
// them.
//
// Every filesystem location used by the storage layer is derived through
// [Resolver.Resolve]. The result is an opaque [Token]; components that
// touch the filesystem accept Tokens, never raw strings, so an unvalidated
// path cannot reach an os call by construction.
//
// Validation is strict and never degrades: a path that trips any check is
// rejected with [ErrTraversal]. There is no clamping, no fallback to naive
// concatenation.
package pathsafe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal indicates a relative path failed traversal validation or
// resolved outside its base directory.
var ErrTraversal = errors.New("path traversal")

// ErrUnknownBase indicates the requested base directory name is not in the
// resolver's allow-list.
var ErrUnknownBase = errors.New("unknown base directory")

// traversalIndicators are substrings that reject a relative path outright,
// compared case-insensitively. Covers literal traversal, both separator
// flavors, URL-encoded and doubly-encoded variants, and the "..../"
// obfuscation that survives a single naive strip of "../".
var traversalIndicators = []string{
	"../",
	"..\\",
	"%2e%2e%2f",
	"%2e%2e%5c",
	"%252e%252e%252f",
	"%252e%252e%255c",
	"..../",
	"....\\",
}

// Token is a validated, canonicalized absolute path known to lie within
// one of the resolver's base directories. The zero Token is invalid; the
// only way to obtain a usable Token is [Resolver.Resolve].
type Token struct {
	path string
}

// Path returns the canonical absolute path. Empty for the zero Token.
func (t Token) Path() string {
	return t.path
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return t.path
}

// Valid reports whether the token was produced by a Resolver.
func (t Token) Valid() bool {
	return t.path != ""
}

// Resolver validates relative paths against named base directories.
type Resolver struct {
	bases map[string]string // name -> canonical absolute base dir
}

// NewResolver builds a Resolver from a map of symbolic base-directory
// names to directory paths. Each directory is made absolute and
// canonicalized once, up front. Directories that do not exist yet are
// accepted (they are created later by the storage layer); symlinked
// directories resolve to their target.
func NewResolver(bases map[string]string) (*Resolver, error) {
	if len(bases) == 0 {
		return nil, errors.New("pathsafe: no base directories configured")
	}

	canonical := make(map[string]string, len(bases))

	for name, dir := range bases {
		if name == "" {
			return nil, errors.New("pathsafe: empty base directory name")
		}

		if dir == "" {
			return nil, fmt.Errorf("pathsafe: base %q: empty directory", name)
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("pathsafe: base %q: %w", name, err)
		}

		canonical[name] = canonicalize(abs)
	}

	return &Resolver{bases: canonical}, nil
}

// Bases returns the configured base directory names.
func (r *Resolver) Bases() []string {
	names := make([]string, 0, len(r.bases))
	for name := range r.bases {
		names = append(names, name)
	}

	return names
}

// BaseDir returns the canonical directory for a base name.
func (r *Resolver) BaseDir(name string) (string, error) {
	dir, ok := r.bases[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBase, name)
	}

	return dir, nil
}

// Resolve validates rel against the named base directory and returns a
// Token for the canonical joined path.
//
// Checks run in order: base name must be allow-listed; rel must be
// non-empty, relative, and free of traversal indicators; the joined path
// must canonicalize to a descendant of the canonical base. Any failure
// returns [ErrUnknownBase] or [ErrTraversal].
func (r *Resolver) Resolve(base string, rel string) (Token, error) {
	dir, ok := r.bases[base]
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrUnknownBase, base)
	}

	if rel == "" {
		return Token{}, fmt.Errorf("%w: empty path", ErrTraversal)
	}

	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") {
		return Token{}, fmt.Errorf("%w: absolute path %q", ErrTraversal, rel)
	}

	lower := strings.ToLower(rel)
	for _, indicator := range traversalIndicators {
		if strings.Contains(lower, indicator) {
			return Token{}, fmt.Errorf("%w: %q contains %q", ErrTraversal, rel, indicator)
		}
	}

	// A bare ".." (no trailing separator) escapes the indicator scan.
	if lower == ".." || strings.HasSuffix(lower, "/..") || strings.HasSuffix(lower, "\\..") {
		return Token{}, fmt.Errorf("%w: %q", ErrTraversal, rel)
	}

	joined := filepath.Join(dir, filepath.FromSlash(rel))
	resolved := canonicalize(joined)

	if resolved != dir && !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return Token{}, fmt.Errorf("%w: %q resolves outside base %q", ErrTraversal, rel, base)
	}

	if resolved == dir {
		return Token{}, fmt.Errorf("%w: %q resolves to base directory itself", ErrTraversal, rel)
	}

	return Token{path: resolved}, nil
}

// canonicalize cleans path and resolves symlinks in its deepest existing
// ancestor, so a link pointing outside a base directory cannot smuggle a
// path past the containment check. Components that do not exist yet are
// appended lexically.
func canonicalize(path string) string {
	path = filepath.Clean(path)

	existing := path

	var pending []string

	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(append([]string{resolved}, pending...)...)
		}

		if !os.IsNotExist(err) {
			return path
		}

		parent := filepath.Dir(existing)
		if parent == existing {
			return path
		}

		pending = append([]string{filepath.Base(existing)}, pending...)
		existing = parent
	}
}
