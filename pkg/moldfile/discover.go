// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMoldfileNotFound is the sentinel wrapped by NotFoundError.
var ErrMoldfileNotFound = errors.New("moldfile not found")

// DefaultFiles are the file names tried, in order, when no file is given.
var DefaultFiles = []string{"mold.cue", "mold.yaml", "mold.yml", "moldfile", "Moldfile"}

// NotFoundError is returned when discovery finds no moldfile.
type NotFoundError struct {
	// Dir is where the search started.
	Dir string
	// Tried lists the candidate names.
	Tried []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no moldfile found in %s or its parents (tried %s)", e.Dir, strings.Join(e.Tried, ", "))
}

// Unwrap returns ErrMoldfileNotFound so callers can use errors.Is for programmatic detection.
func (e *NotFoundError) Unwrap() error { return ErrMoldfileNotFound }

// Discover finds the moldfile to use when starting from dir. When name is
// non-empty only that name is considered; otherwise DefaultFiles are tried.
// Each directory from dir up to the filesystem root is searched in turn.
func Discover(dir, name string) (string, error) {
	candidates := DefaultFiles
	if name != "" {
		candidates = []string{name}
	}

	start, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for d := start; ; {
		if path, ok := findIn(d, candidates); ok {
			return path, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return "", &NotFoundError{Dir: start, Tried: candidates}
}

// DiscoverIn locates the moldfile inside a fetched module folder. A
// non-empty file is taken relative to dir; otherwise DefaultFiles are tried
// in dir only.
func DiscoverIn(dir, file string) (string, error) {
	if file != "" {
		path := filepath.Join(dir, filepath.FromSlash(file))
		if !isFile(path) {
			return "", &NotFoundError{Dir: dir, Tried: []string{file}}
		}
		return path, nil
	}
	if path, ok := findIn(dir, DefaultFiles); ok {
		return path, nil
	}
	return "", &NotFoundError{Dir: dir, Tried: DefaultFiles}
}

func findIn(dir string, candidates []string) (string, bool) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
