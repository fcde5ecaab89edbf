// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/moldrun/mold/pkg/moldfile"
)

// open parses the moldfile at path and merges it into m. Recipes are
// adopted under prefix and never replace a name that is already taken.
// Variables merge first-wins, so a file's variables take precedence over
// those of the files it includes. Includes are opened depth-first in
// declaration order, each under its own prefix.
func (m *Mold) open(ctx context.Context, path, prefix string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if slices.Contains(m.opening, abs) {
		return &IncludeCycleError{Chain: append(slices.Clone(m.opening), abs)}
	}
	m.opening = append(m.opening, abs)
	defer func() { m.opening = m.opening[:len(m.opening)-1] }()

	mf, err := moldfile.Parse(abs)
	if err != nil {
		return err
	}
	if err := moldfile.CheckVersion(abs, mf.Version, m.version); err != nil {
		return err
	}

	dir := mf.BaseDir()
	for _, name := range mf.Recipes.Names() {
		key := prefix + name
		r := moldfile.WithPrefix(mf.Recipes[name], prefix)
		r.Base().SearchDir = dir
		if m.recipes.Adopt(key, r) {
			m.sources[key] = dir
		} else {
			slog.Debug("recipe already defined, keeping the first definition", "recipe", key, "file", abs)
		}
	}

	m.vars.Merge(m.resolver.EnvVars(mf, m.active))

	for _, inc := range mf.Includes {
		if err := m.include(ctx, inc); err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
	}

	if mf.Dir != "" {
		m.workDir = mf.Dir
	}
	return nil
}

func (m *Mold) include(ctx context.Context, inc moldfile.Include) error {
	folder, err := m.cache.Ensure(ctx, inc.Remote)
	if err != nil {
		return err
	}
	m.addRemote(inc.Remote)

	file, err := moldfile.DiscoverIn(folder, inc.File)
	if err != nil {
		return fmt.Errorf("include %s: %w", inc.Remote, err)
	}
	return m.open(ctx, file, inc.Prefix)
}

func (m *Mold) addRemote(remote moldfile.Remote) {
	folder := remote.FolderName()
	for _, r := range m.remotes {
		if r.FolderName() == folder {
			return
		}
	}
	m.remotes = append(m.remotes, remote)
}
