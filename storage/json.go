package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/inkpress/inkpress/pkg/pathsafe"
)

// JSONDriver stores one record per file as a single JSON document at
// {base}/{subdir}/{key}.json. Unlike the Markdown variant there is no
// separate body concept in the encoding; metadata and body serialize as
// one object.
type JSONDriver struct {
	resolver PathResolver
	base     string
	subdir   string
}

// jsonRecord is the on-disk shape of a record.
type jsonRecord struct {
	Meta map[string]any `json:"meta"`
	Body string         `json:"body"`
}

// NewJSONDriver creates a driver writing under subdir of the named base
// directory.
func NewJSONDriver(resolver PathResolver, base, subdir string) *JSONDriver {
	return &JSONDriver{resolver: resolver, base: base, subdir: subdir}
}

func (d *JSONDriver) resolve(key string) (pathsafe.Token, error) {
	if err := validateKey(key); err != nil {
		return pathsafe.Token{}, fmt.Errorf("%w: %q", err, key)
	}

	return d.resolver.Resolve(d.base, path.Join(d.subdir, key+".json"))
}

// Load reads and decodes the record for key.
func (d *JSONDriver) Load(key string) (*RawRecord, error) {
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

	var rec jsonRecord

	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &ParseError{Key: key, Path: token.Path(), Err: err}
	}

	if rec.Meta == nil {
		rec.Meta = map[string]any{}
	}

	return &RawRecord{Meta: rec.Meta, Body: rec.Body}, nil
}

// Save writes the record for key, replacing any previous content.
func (d *JSONDriver) Save(key string, rec *RawRecord) error {
	token, err := d.resolve(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(jsonRecord{Meta: rec.Meta, Body: rec.Body}, "", "  ")
	if err != nil {
		return &ParseError{Key: key, Path: token.Path(), Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(token.Path()), 0o755); err != nil {
		return Unavailable("save", token.Path(), err)
	}

	if err := os.WriteFile(token.Path(), append(data, '\n'), 0o644); err != nil {
		return Unavailable("save", token.Path(), err)
	}

	return nil
}

// Delete removes the record file for key.
func (d *JSONDriver) Delete(key string) error {
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
func (d *JSONDriver) List() ([]string, error) {
	return listFileKeys(d.resolver, d.base, d.subdir, ".json")
}
