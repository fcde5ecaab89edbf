// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"slices"
	"sort"
)

const (
	// KindCommand is a recipe that runs a literal argv.
	KindCommand RecipeKind = "command"
	// KindShell is a recipe that runs text through $SHELL, optionally with an inline script.
	KindShell RecipeKind = "shell"
	// KindModule is a recipe that points at another moldfile in a remote repository.
	KindModule RecipeKind = "module"
)

type (
	// RecipeKind names a Recipe variant.
	RecipeKind string

	// Recipe is a named unit of work. The set of implementations is closed:
	// *Command, *Shell and *Module.
	Recipe interface {
		// Base returns the attributes shared by every variant.
		Base() *RecipeBase
		// Kind returns the variant name.
		Kind() RecipeKind

		isRecipe()
	}

	// RecipeBase holds the attributes shared by every recipe variant.
	RecipeBase struct {
		// Help is a short description shown in listings.
		Help string
		// Vars are recipe-specific variables layered over the global ones.
		Vars VarMap
		// Environments are conditional overlays for Vars.
		Environments EnvMap
		// Dir overrides the working directory, relative to the root moldfile.
		Dir string
		// Requires lists prerequisite recipe names.
		Requires []string
		// SearchDir is the directory of the moldfile that declared the recipe.
		// Relative script and file lookups resolve against it. It is set when
		// the recipe is merged and is independent of the working directory.
		SearchDir string
		// ModulePath lists the include prefixes that led to this recipe.
		ModulePath []string
	}

	// Command runs a literal argv. Exactly one of Args or Line is set; Line
	// is split into words after variable expansion.
	Command struct {
		RecipeBase
		Args []string
		Line string
	}

	// Shell runs Text with `$SHELL -c`. When Script is non-empty it is written
	// to a content-addressed file first and exposed as $MOLD_SCRIPT.
	Shell struct {
		RecipeBase
		Text   string
		Script string
	}

	// Module exposes the recipes of a remote moldfile under this recipe's name.
	Module struct {
		RecipeBase
		Remote Remote
	}

	// RecipeSet maps fully qualified recipe names to recipes.
	RecipeSet map[string]Recipe
)

// Base implements Recipe.
func (b *RecipeBase) Base() *RecipeBase { return b }

// OwnVars returns the recipe's own variables.
func (b *RecipeBase) OwnVars() *VarMap { return &b.Vars }

// OwnEnvironments returns the recipe's conditional overlays.
func (b *RecipeBase) OwnEnvironments() *EnvMap { return &b.Environments }

// Kind implements Recipe.
func (*Command) Kind() RecipeKind { return KindCommand }

// Kind implements Recipe.
func (*Shell) Kind() RecipeKind { return KindShell }

// Kind implements Recipe.
func (*Module) Kind() RecipeKind { return KindModule }

func (*Command) isRecipe() {}
func (*Shell) isRecipe()   {}
func (*Module) isRecipe()  {}

func (b RecipeBase) clone() RecipeBase {
	c := b
	c.Vars = *b.Vars.Clone()
	c.Environments = EnvMap{entries: b.Environments.Entries()}
	c.Requires = slices.Clone(b.Requires)
	c.ModulePath = slices.Clone(b.ModulePath)
	return c
}

// Clone returns a deep copy of r so it can be re-parented without touching
// the original.
func Clone(r Recipe) Recipe {
	switch r := r.(type) {
	case *Command:
		return &Command{RecipeBase: r.RecipeBase.clone(), Args: slices.Clone(r.Args), Line: r.Line}
	case *Shell:
		return &Shell{RecipeBase: r.RecipeBase.clone(), Text: r.Text, Script: r.Script}
	case *Module:
		return &Module{RecipeBase: r.RecipeBase.clone(), Remote: r.Remote}
	default:
		panic("moldfile.Clone: unknown recipe type")
	}
}

// WithPrefix returns a copy of r whose requirements carry prefix, so they
// still resolve once the recipe is adopted under that prefix.
func WithPrefix(r Recipe, prefix string) Recipe {
	c := Clone(r)
	if prefix == "" {
		return c
	}
	base := c.Base()
	for i, req := range base.Requires {
		base.Requires[i] = prefix + req
	}
	base.ModulePath = append(base.ModulePath, prefix)
	return c
}

// Names returns the recipe names in alphabetical order.
func (s RecipeSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adopt inserts r under name unless the name is taken and reports whether
// it was inserted. Existing entries always win.
func (s RecipeSet) Adopt(name string, r Recipe) bool {
	if _, exists := s[name]; exists {
		return false
	}
	s[name] = r
	return true
}
