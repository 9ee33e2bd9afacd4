package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkpress/inkpress/pkg/frontmatter"
	"github.com/inkpress/inkpress/pkg/pathsafe"
)

// PathResolver is the path-validation dependency of the file drivers,
// satisfied by [pathsafe.Resolver]. Drivers obtain every filesystem
// location through it; the returned token is the only path type that
// reaches an os call.
type PathResolver interface {
	Resolve(base string, rel string) (pathsafe.Token, error)
}

// MarkdownDriver stores one record per file as a front-matter block
// followed by a Markdown body, at {base}/{subdir}/{key}.md. Files are
// human-editable; metadata serialization is deterministic so an unmodified
// record round-trips verbatim.
//
// Writes are plain whole-file writes, not rename swaps. Concurrent writers
// to the same key may interleave; see [Driver].
type MarkdownDriver struct {
	resolver PathResolver
	base     string
	subdir   string
	priority []string
}

// NewMarkdownDriver creates a driver writing under subdir of the named
// base directory. priorityKeys controls front-matter key order on save.
func NewMarkdownDriver(resolver PathResolver, base, subdir string, priorityKeys ...string) *MarkdownDriver {
	return &MarkdownDriver{
		resolver: resolver,
		base:     base,
		subdir:   subdir,
		priority: priorityKeys,
	}
}

func (d *MarkdownDriver) resolve(key string) (pathsafe.Token, error) {
	if err := validateKey(key); err != nil {
		return pathsafe.Token{}, fmt.Errorf("%w: %q", err, key)
	}

	return d.resolver.Resolve(d.base, path.Join(d.subdir, key+".md"))
}

// Load reads and decodes the record for key.
func (d *MarkdownDriver) Load(key string) (*RawRecord, error) {
	token, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(token.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
		}

		return nil, Unavailable("load", token.Path(), err)
	}

	block, body, err := frontmatter.Split(data)
	if err != nil {
		return nil, &ParseError{Key: key, Path: token.Path(), Err: err}
	}

	meta, err := frontmatter.Parse(block)
	if err != nil {
		return nil, &ParseError{Key: key, Path: token.Path(), Err: err}
	}

	return &RawRecord{Meta: meta, Body: body}, nil
}

// Save writes the record for key, replacing any previous content.
func (d *MarkdownDriver) Save(key string, rec *RawRecord) error {
	token, err := d.resolve(key)
	if err != nil {
		return err
	}

	block, err := frontmatter.Marshal(rec.Meta, frontmatter.WithKeyPriority(d.priority...))
	if err != nil {
		return &ParseError{Key: key, Path: token.Path(), Err: err}
	}

	content := block + "\n" + rec.Body
	if rec.Body != "" && !strings.HasSuffix(rec.Body, "\n") {
		content += "\n"
	}

	if err := os.MkdirAll(filepath.Dir(token.Path()), 0o755); err != nil {
		return Unavailable("save", token.Path(), err)
	}

	if err := os.WriteFile(token.Path(), []byte(content), 0o644); err != nil {
		return Unavailable("save", token.Path(), err)
	}

	return nil
}

// Delete removes the record file for key.
func (d *MarkdownDriver) Delete(key string) error {
	token, err := d.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(token.Path()); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", key, ErrNotFound)
		}

		return Unavailable("delete", token.Path(), err)
	}

	return nil
}

// List returns every record key under the driver's directory, sorted.
func (d *MarkdownDriver) List() ([]string, error) {
	return listFileKeys(d.resolver, d.base, d.subdir, ".md")
}

// listFileKeys enumerates {base}/{subdir}/*{ext} record keys. A missing
// directory is an empty store, not an error.
func listFileKeys(resolver PathResolver, base, subdir, ext string) ([]string, error) {
	// The directory itself must pass the same validation as record paths.
	token, err := resolver.Resolve(base, subdir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(token.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, Unavailable("list", token.Path(), err)
	}

	var keys []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}

		key := strings.TrimSuffix(name, ext)
		if validateKey(key) != nil {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys, nil
}
