// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"context"

	"github.com/moldrun/mold/internal/dag"
)

// FindAllDependencies returns targets together with everything they
// require, each recipe after its requirements. Every name appears once, at
// its first position. Requirements of recipes inside a module are qualified
// with the module's name.
func (m *Mold) FindAllDependencies(ctx context.Context, targets []string) ([]string, error) {
	return dag.Closure(targets, func(name string) ([]string, error) {
		res, err := m.resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		requires := res.recipe.Base().Requires
		deps := make([]string, len(requires))
		for i, req := range requires {
			deps[i] = res.qualifier + req
		}
		return deps, nil
	})
}
