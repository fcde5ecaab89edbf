// SPDX-License-Identifier: MPL-2.0

// Package mold opens a moldfile together with everything it includes and
// turns recipe names into runnable tasks.
//
// Opening merges the recipes of the root file and of every included remote
// moldfile into one flat namespace in which the first definition of a name
// wins. Module recipes are opened lazily, as separate child namespaces,
// the first time a name qualified with the module's name is resolved.
package mold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moldrun/mold/internal/vars"
	"github.com/moldrun/mold/pkg/moldfile"
	"github.com/moldrun/mold/pkg/moldmod"
)

// StateDirName is the default state directory, created next to the root
// moldfile.
const StateDirName = ".mold"

// Reserved variables. They are set on every task and override user
// variables with the same name.
const (
	VarRoot      = "MOLD_ROOT"
	VarDir       = "MOLD_DIR"
	VarSource    = "MOLD_SOURCE"
	VarSearchDir = "MOLD_SEARCH_DIR"
	VarWorkDir   = "MOLD_WORK_DIR"
	VarEnvs      = "MOLD_ENVS"
	VarScript    = "MOLD_SCRIPT"
)

// ReservedVars lists the reserved variables. Values inherited from an outer
// mold invocation describe the wrong recipe, so they are never read from the
// environment.
var ReservedVars = []string{VarRoot, VarDir, VarSource, VarSearchDir, VarWorkDir, VarEnvs, VarScript}

type (
	// Options configures Init.
	Options struct {
		// Environments are the active environment names.
		Environments []string
		// Version is the running mold version, checked against each
		// moldfile's requirement. moldfile.DevVersion disables the check.
		Version string
		// StateDir overrides the state directory. Relative paths are taken
		// relative to the root moldfile's directory.
		StateDir string
		// Fetcher performs git operations. Nil means a go-git fetcher.
		Fetcher moldmod.Fetcher
		// Env resolves names that are not mold variables. Nil means the
		// process environment.
		Env vars.EnvProvider
		// StrictExpressions rejects unknown characters in environment
		// expressions instead of ignoring them.
		StrictExpressions bool
	}

	// Mold is an opened namespace of recipes.
	Mold struct {
		// rootDir is the directory of the root moldfile; relative working
		// directories are resolved against it.
		rootDir  string
		rootFile string

		recipes moldfile.RecipeSet
		// sources maps recipe names to the directory of the declaring file.
		sources map[string]string
		vars    *moldfile.VarMap
		// workDir is the namespace default working directory, unexpanded.
		workDir string
		remotes []moldfile.Remote

		active   []string
		version  string
		resolver *vars.Resolver
		cache    *moldmod.Cache

		// opening is the stack of files being opened, for cycle detection.
		opening []string
		// modules holds the child namespaces of module recipes, opened on demand.
		modules map[string]*Mold
	}
)

// Init creates the state directory and opens the moldfile at path with
// everything it includes.
func Init(ctx context.Context, path string, opts Options) (*Mold, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	stateDir := StateDirFor(abs, opts.StateDir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(stateDir); err == nil {
		stateDir = resolved
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = moldmod.NewGoGitFetcher()
	}
	env := opts.Env
	if env == nil {
		env = vars.OSEnv{}
	}

	m := newMold(abs, opts.Environments, opts.Version,
		&vars.Resolver{Env: env, Strict: opts.StrictExpressions, Masked: ReservedVars},
		moldmod.NewCache(stateDir, fetcher))
	if err := m.open(ctx, abs, ""); err != nil {
		return nil, err
	}
	return m, nil
}

// StateDirFor returns the state directory used for the root moldfile at
// rootFile. A relative override is taken relative to the moldfile's directory.
func StateDirFor(rootFile, override string) string {
	dir := override
	if dir == "" {
		dir = StateDirName
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(rootFile), dir)
}

func newMold(rootFile string, active []string, version string, resolver *vars.Resolver, cache *moldmod.Cache) *Mold {
	return &Mold{
		rootDir:  filepath.Dir(rootFile),
		rootFile: rootFile,
		recipes:  make(moldfile.RecipeSet),
		sources:  make(map[string]string),
		vars:     &moldfile.VarMap{},
		active:   active,
		version:  version,
		resolver: resolver,
		cache:    cache,
		modules:  make(map[string]*Mold),
	}
}

// RootDir returns the directory of the root moldfile.
func (m *Mold) RootDir() string { return m.rootDir }

// RootFile returns the path of the root moldfile.
func (m *Mold) RootFile() string { return m.rootFile }

// StateDir returns the state directory holding checkouts and scripts.
func (m *Mold) StateDir() string { return m.cache.Dir() }

// Cache returns the state directory manager.
func (m *Mold) Cache() *moldmod.Cache { return m.cache }

// Environments returns the active environments.
func (m *Mold) Environments() []string { return m.active }

// Vars returns a copy of the merged global variables, unexpanded.
func (m *Mold) Vars() *moldfile.VarMap { return m.vars.Clone() }

// Remotes returns the included remotes in the order they were first opened.
func (m *Mold) Remotes() []moldfile.Remote { return append([]moldfile.Remote(nil), m.remotes...) }
