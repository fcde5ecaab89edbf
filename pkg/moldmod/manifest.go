// SPDX-License-Identifier: MPL-2.0

package moldmod

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/moldrun/mold/pkg/moldfile"
)

// ManifestFile is the name of the manifest inside the state directory.
const ManifestFile = "remotes.toml"

type (
	// Manifest records the remotes checked out in a state directory.
	Manifest struct {
		Remotes []ManifestEntry `toml:"remote"`
	}

	// ManifestEntry describes one checkout.
	ManifestEntry struct {
		URL       string    `toml:"url"`
		Ref       string    `toml:"ref"`
		Folder    string    `toml:"folder"`
		FetchedAt time.Time `toml:"fetched_at"`
		UpdatedAt time.Time `toml:"updated_at,omitempty"`
	}
)

// Remote returns the remote the entry was fetched from.
func (e ManifestEntry) Remote() moldfile.Remote {
	return moldfile.Remote{URL: e.URL, Ref: e.Ref}
}

// LoadManifest reads the manifest in dir. A missing file yields an empty
// manifest.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// Save writes the manifest into dir, sorted by folder.
func (m *Manifest) Save(dir string) error {
	slices.SortFunc(m.Remotes, func(a, b ManifestEntry) int { return strings.Compare(a.Folder, b.Folder) })

	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := filepath.Join(dir, ManifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, ManifestFile))
}

// record upserts the entry for remote.
func (m *Manifest) record(remote moldfile.Remote, now time.Time, updated bool) {
	folder := remote.FolderName()
	i := slices.IndexFunc(m.Remotes, func(e ManifestEntry) bool { return e.Folder == folder })
	if i < 0 {
		m.Remotes = append(m.Remotes, ManifestEntry{
			URL:       remote.URL,
			Ref:       remote.RefOrDefault(),
			Folder:    folder,
			FetchedAt: now,
		})
		return
	}
	if updated {
		m.Remotes[i].UpdatedAt = now
	}
}
