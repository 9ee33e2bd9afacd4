// Package storage persists raw content records behind a small driver
// interface with file-backed (Markdown, JSON) and SQLite implementations.
//
// All filesystem locations used by the file drivers are produced through
// [pathsafe.Resolver]; drivers never concatenate paths themselves.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrParse indicates a stored record could not be decoded. Parse failures
// are record-local: bulk loads skip and log them, single-key loads fail.
var ErrParse = errors.New("parse error")

// ErrUnavailable indicates the underlying store could not be read or
// written. Fatal to the operation; never retried here.
var ErrUnavailable = errors.New("storage unavailable")

// ParseError describes a malformed record. Matches [ErrParse] with
// errors.Is.
type ParseError struct {
	// Key is the logical record key.
	Key string

	// Path is the file path when the record is file-backed, empty otherwise.
	Path string

	// Err is the underlying decode failure.
	Err error
}

// Error formats as "parse record <key>: <cause>".
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse record %s (%s): %v", e.Key, e.Path, e.Err)
	}

	return fmt.Sprintf("parse record %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports true for [ErrParse].
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// UnavailableError describes an inaccessible store with enough diagnostic
// detail for an operator to act on: the resolved path plus directory,
// file, and writability state at the time of the failure. Matches
// [ErrUnavailable] with errors.Is.
type UnavailableError struct {
	Op         string
	Path       string
	DirExists  bool
	FileExists bool
	Writable   bool
	Err        error
}

// Error includes the full diagnostic detail.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v (dir_exists=%t file_exists=%t writable=%t)",
		e.Op, e.Path, e.Err, e.DirExists, e.FileExists, e.Writable)
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is reports true for [ErrUnavailable].
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable builds an UnavailableError for path, probing the filesystem
// for diagnostic state.
func Unavailable(op string, path string, err error) *UnavailableError {
	ue := &UnavailableError{Op: op, Path: path, Err: err}

	dir := filepath.Dir(path)

	if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
		ue.DirExists = true
		ue.Writable = writable(dir)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		ue.FileExists = true
	}

	return ue
}

// writable probes whether dir accepts new files.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}

	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return true
}
