// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"
	"fmt"
	"slices"

	"github.com/kballard/go-shellquote"

	"github.com/moldrun/mold/pkg/moldfile"
)

// Explanation describes how a recipe is declared and what it resolves to.
type Explanation struct {
	Name string
	Help string
	Kind moldfile.RecipeKind
	// Requires are the direct requirements, qualified like Name.
	Requires []string
	// Dir is the declared working directory, unexpanded.
	Dir string
	// Source is the recipe text as written: the command, the shell text, or
	// the remote of a module.
	Source string
	// Script is the inline script of a shell recipe.
	Script string
	// ModulePath lists the include prefixes the recipe was adopted through.
	ModulePath []string
	// SearchDir is the directory of the declaring moldfile.
	SearchDir string
	// Task is the resolved task.
	Task *Task
}

// Recipes lists the recipes of m in alphabetical order.
func (m *Mold) Recipes() []RecipeInfo {
	names := m.recipes.Names()
	infos := make([]RecipeInfo, 0, len(names))
	for _, name := range names {
		r := m.recipes[name]
		infos = append(infos, RecipeInfo{
			Name:     name,
			Help:     r.Base().Help,
			Kind:     r.Kind(),
			Requires: slices.Clone(r.Base().Requires),
		})
	}
	return infos
}

// Explain describes the recipe name and the task it builds.
func (m *Mold) Explain(ctx context.Context, name string) (*Explanation, error) {
	res, err := m.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	task, err := res.owner.buildTask(ctx, name, res.local, res.recipe)
	if err != nil {
		return nil, err
	}

	base := res.recipe.Base()
	ex := &Explanation{
		Name:       name,
		Help:       base.Help,
		Kind:       res.recipe.Kind(),
		Dir:        base.Dir,
		ModulePath: slices.Clone(base.ModulePath),
		SearchDir:  base.SearchDir,
		Task:       task,
	}
	for _, req := range base.Requires {
		ex.Requires = append(ex.Requires, res.qualifier+req)
	}

	switch r := res.recipe.(type) {
	case *moldfile.Command:
		ex.Source = r.Line
		if r.Line == "" {
			ex.Source = shellquote.Join(r.Args...)
		}
	case *moldfile.Shell:
		ex.Source = r.Text
		ex.Script = r.Script
	case *moldfile.Module:
		ex.Source = r.Remote.String()
	}
	return ex, nil
}

// ShVars renders the expanded global variables as shell export statements,
// preceded by MOLD_ROOT and MOLD_DIR.
func (m *Mold) ShVars() []string {
	expanded := moldfile.NewVarMap(VarRoot, m.rootDir, VarDir, m.cache.Dir())
	m.resolver.ExpandOnto(expanded, m.vars)

	lines := make([]string, 0, expanded.Len())
	for k, v := range expanded.All() {
		lines = append(lines, fmt.Sprintf("export %s=%s", k, shellquote.Join(v)))
	}
	return lines
}

// UpdateAll fetches and force-checks out every remote this namespace uses:
// includes, module recipes and, recursively, the remotes of modules. Each
// remote is updated once.
func (m *Mold) UpdateAll(ctx context.Context) error {
	return m.updateAll(ctx, make(map[string]bool))
}

// updateAll walks module namespaces once per moldfile, which also stops
// modules that refer to their own repository.
func (m *Mold) updateAll(ctx context.Context, seen map[string]bool) error {
	if seen[m.rootFile] {
		return nil
	}
	seen[m.rootFile] = true

	for _, remote := range m.remotes {
		if err := m.cache.Update(ctx, remote); err != nil {
			return err
		}
	}

	for _, name := range m.recipes.Names() {
		mod, ok := m.recipes[name].(*moldfile.Module)
		if !ok {
			continue
		}
		if err := m.cache.Update(ctx, mod.Remote); err != nil {
			return err
		}
		child, err := m.module(ctx, name)
		if err != nil {
			return err
		}
		if err := child.updateAll(ctx, seen); err != nil {
			return err
		}
	}
	return nil
}
