// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type (
	// Files maps slash-separated relative paths to file contents.
	Files map[string]string

	// FakeFetcher serves in-memory repositories without touching the network.
	// Repos maps a URL to its refs, and each ref to the files it contains.
	FakeFetcher struct {
		Repos map[string]map[string]Files

		// Clones, Fetches and Checkouts record every call, in order.
		Clones    []string
		Fetches   []string
		Checkouts []string
	}
)

const originFile = ".fake-origin"

// NewFakeFetcher returns a fetcher with no repositories.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{Repos: make(map[string]map[string]Files)}
}

// AddRepo registers files for url at ref.
func (f *FakeFetcher) AddRepo(url, ref string, files Files) {
	if f.Repos[url] == nil {
		f.Repos[url] = make(map[string]Files)
	}
	f.Repos[url][ref] = files
}

// Clone implements moldmod.Fetcher.
func (f *FakeFetcher) Clone(_ context.Context, url, dest string) error {
	f.Clones = append(f.Clones, url)
	if _, ok := f.Repos[url]; !ok {
		return fmt.Errorf("repository %s not found", url)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, originFile), []byte(url), 0o644)
}

// Fetch implements moldmod.Fetcher.
func (f *FakeFetcher) Fetch(_ context.Context, dest string) error {
	f.Fetches = append(f.Fetches, dest)
	_, err := f.origin(dest)
	return err
}

// Checkout implements moldmod.Fetcher.
func (f *FakeFetcher) Checkout(_ context.Context, dest, ref string) error {
	f.Checkouts = append(f.Checkouts, dest+"@"+ref)
	url, err := f.origin(dest)
	if err != nil {
		return err
	}
	files, ok := f.Repos[url][ref]
	if !ok {
		return fmt.Errorf("ref %q not found in %s", ref, url)
	}
	for name, content := range files {
		path := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeFetcher) origin(dest string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dest, originFile))
	if err != nil {
		return "", fmt.Errorf("%s is not a clone: %w", dest, err)
	}
	return string(data), nil
}
