// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"
	"fmt"
	"strings"

	"github.com/moldrun/mold/pkg/moldfile"
)

// Separator joins a module name and a recipe name.
const Separator = "/"

// resolved is a recipe located through zero or more module namespaces.
type resolved struct {
	// owner is the namespace that declares the recipe.
	owner *Mold
	// qualifier is prepended to names in owner to make them valid in the
	// namespace the lookup started from, e.g. "tools/".
	qualifier string
	// local is the recipe's name inside owner.
	local  string
	recipe moldfile.Recipe
}

// resolve finds name in m. Names declared in m, including those adopted
// under an include prefix, match exactly. Otherwise a name of the form
// "mod/rest" is looked up as rest inside the module recipe mod. Module
// names may contain the separator themselves, e.g. "inc/tools" adopted
// under the prefix "inc/", so the longest module name that prefixes name
// is used.
func (m *Mold) resolve(ctx context.Context, name string) (*resolved, error) {
	if r, ok := m.recipes[name]; ok {
		return &resolved{owner: m, local: name, recipe: r}, nil
	}

	for i := strings.LastIndex(name, Separator); i > 0; i = strings.LastIndex(name[:i], Separator) {
		head, rest := name[:i], name[i+len(Separator):]
		if _, ok := m.recipes[head].(*moldfile.Module); !ok {
			continue
		}

		child, err := m.module(ctx, head)
		if err != nil {
			return nil, err
		}
		res, err := child.resolve(ctx, rest)
		if err != nil {
			return nil, requalify(err, head+Separator)
		}
		res.qualifier = head + Separator + res.qualifier
		return res, nil
	}

	head, _, qualified := strings.Cut(name, Separator)
	if !qualified || m.hasPrefix(head+Separator) {
		return nil, &RecipeNotFoundError{Name: name}
	}
	return nil, &ModuleNotFoundError{Name: name, Module: head}
}

func (m *Mold) hasPrefix(prefix string) bool {
	for name := range m.recipes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// requalify rewrites lookup errors from a child namespace so they name
// the recipe as the caller wrote it.
func requalify(err error, qualifier string) error {
	switch e := err.(type) {
	case *RecipeNotFoundError:
		return &RecipeNotFoundError{Name: qualifier + e.Name}
	case *ModuleNotFoundError:
		return &ModuleNotFoundError{Name: qualifier + e.Name, Module: qualifier + e.Module}
	default:
		return err
	}
}

// module returns the child namespace of the module recipe name, fetching
// and opening it on first use. The child shares the state directory,
// active environments and resolver. Its variables are overlaid with the
// parent's global variables and then with the module recipe's own, so the
// including side can parametrize the module.
func (m *Mold) module(ctx context.Context, name string) (*Mold, error) {
	if child, ok := m.modules[name]; ok {
		return child, nil
	}

	mod, ok := m.recipes[name].(*moldfile.Module)
	if !ok {
		return nil, &ModuleNotFoundError{Name: name, Module: name}
	}

	folder, err := m.cache.Ensure(ctx, mod.Remote)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	m.addRemote(mod.Remote)

	file, err := moldfile.DiscoverIn(folder, mod.Remote.File)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}

	child := newMold(file, m.active, m.version, m.resolver, m.cache)
	if err := child.open(ctx, file, ""); err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	child.vars.Overlay(m.vars)
	child.vars.Overlay(m.resolver.EnvVars(mod, m.active))

	m.modules[name] = child
	return child, nil
}
