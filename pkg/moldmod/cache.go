// SPDX-License-Identifier: MPL-2.0

package moldmod

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/moldrun/mold/pkg/moldfile"
)

const (
	// RemotesDir holds one checkout per remote.
	RemotesDir = "remotes"
	// ScriptsDir holds materialized inline scripts.
	ScriptsDir = "scripts"
)

// Cache is a state directory shared by every moldfile opened during one
// invocation. It remembers which folders it has already ensured so that a
// remote referenced many times is fetched at most once. A Cache is not safe
// for concurrent use.
type Cache struct {
	dir     string
	fetcher Fetcher
	ensured map[string]bool
	updated map[string]bool
	now     func() time.Time
}

// NewCache returns a cache rooted at dir that fetches with fetcher.
func NewCache(dir string, fetcher Fetcher) *Cache {
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		ensured: make(map[string]bool),
		updated: make(map[string]bool),
		now:     time.Now,
	}
}

// Dir returns the state directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the checkout folder for remote.
func (c *Cache) Path(remote moldfile.Remote) string {
	return filepath.Join(c.dir, RemotesDir, remote.FolderName())
}

// Exists reports whether the checkout folder for remote is present.
func (c *Cache) Exists(remote moldfile.Remote) bool {
	info, err := os.Stat(c.Path(remote))
	return err == nil && info.IsDir()
}

// Ensure returns the checkout folder for remote, cloning and checking it
// out first when the folder does not exist.
func (c *Cache) Ensure(ctx context.Context, remote moldfile.Remote) (string, error) {
	path := c.Path(remote)
	if c.ensured[path] {
		return path, nil
	}

	if c.Exists(remote) {
		slog.Debug("remote already present", "remote", remote.String(), "path", path)
		c.ensured[path] = true
		return path, nil
	}

	slog.Debug("fetching remote", "remote", remote.String(), "path", path)
	if err := c.fetcher.Clone(ctx, remote.URL, path); err != nil {
		return "", &FetchError{Op: "clone", Remote: remote.String(), Err: err}
	}
	if err := c.fetcher.Checkout(ctx, path, remote.RefOrDefault()); err != nil {
		_ = os.RemoveAll(path) // a folder that exists must hold the right ref
		return "", &FetchError{Op: "checkout", Remote: remote.String(), Err: err}
	}

	c.ensured[path] = true
	c.updated[path] = true
	return path, c.recordFetch(remote, false)
}

// Update fetches remote and force-checks out its ref again, cloning it
// first when it is missing. Each remote is updated at most once per Cache,
// and a remote cloned by this Cache counts as updated.
func (c *Cache) Update(ctx context.Context, remote moldfile.Remote) error {
	path := c.Path(remote)
	if c.updated[path] {
		return nil
	}
	if !c.Exists(remote) {
		_, err := c.Ensure(ctx, remote)
		return err
	}

	slog.Debug("updating remote", "remote", remote.String(), "path", path)
	if err := c.fetcher.Fetch(ctx, path); err != nil {
		return &FetchError{Op: "fetch", Remote: remote.String(), Err: err}
	}
	if err := c.fetcher.Checkout(ctx, path, remote.RefOrDefault()); err != nil {
		return &FetchError{Op: "checkout", Remote: remote.String(), Err: err}
	}

	c.ensured[path] = true
	c.updated[path] = true
	return c.recordFetch(remote, true)
}

// Remotes returns the manifest of checked-out remotes.
func (c *Cache) Remotes() ([]ManifestEntry, error) {
	m, err := LoadManifest(c.dir)
	if err != nil {
		return nil, err
	}
	return m.Remotes, nil
}

// Clean removes the whole state directory.
func (c *Cache) Clean() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", c.dir, err)
	}
	clear(c.ensured)
	clear(c.updated)
	return nil
}

// WriteScript stores an inline script under a content-addressed name and
// returns its path. Writing the same text twice reuses the file.
func (c *Cache) WriteScript(text string) (string, error) {
	name := fmt.Sprintf("%016x.sh", xxhash.Sum64String(text))
	path := filepath.Join(c.dir, ScriptsDir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat script: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o755); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	return path, nil
}

func (c *Cache) recordFetch(remote moldfile.Remote, updated bool) error {
	m, err := LoadManifest(c.dir)
	if err != nil {
		return err
	}
	m.record(remote, c.now().UTC(), updated)
	return m.Save(c.dir)
}
