// SPDX-License-Identifier: MPL-2.0

package moldfile

import (
	"slices"
	"testing"
)

func TestWithPrefix(t *testing.T) {
	t.Parallel()

	orig := &Command{
		RecipeBase: RecipeBase{Requires: []string{"lint"}, Vars: *NewVarMap("A", "1")},
		Args:       []string{"go", "build"},
	}
	got := WithPrefix(orig, "mod/")

	if want := []string{"mod/lint"}; !slices.Equal(got.Base().Requires, want) {
		t.Errorf("Requires = %v, want %v", got.Base().Requires, want)
	}
	if want := []string{"mod/"}; !slices.Equal(got.Base().ModulePath, want) {
		t.Errorf("ModulePath = %v, want %v", got.Base().ModulePath, want)
	}
	if !slices.Equal(orig.Requires, []string{"lint"}) || orig.ModulePath != nil {
		t.Errorf("original was modified: %+v", orig.RecipeBase)
	}

	got.Base().Vars.Set("A", "2")
	if v, _ := orig.Vars.Get("A"); v != "1" {
		t.Errorf("clone shares vars with the original")
	}
}

func TestWithPrefix_Empty(t *testing.T) {
	t.Parallel()

	orig := &Shell{RecipeBase: RecipeBase{Requires: []string{"a"}}, Text: "true"}
	got := WithPrefix(orig, "")
	if got == Recipe(orig) {
		t.Error("expected a copy")
	}
	if !slices.Equal(got.Base().Requires, []string{"a"}) || len(got.Base().ModulePath) != 0 {
		t.Errorf("unexpected base: %+v", got.Base())
	}
}

func TestRecipeSet_Adopt(t *testing.T) {
	t.Parallel()

	parent := &Command{Args: []string{"parent"}}
	child := &Command{Args: []string{"child"}}

	set := RecipeSet{}
	if !set.Adopt("test", parent) {
		t.Fatal("expected first insert to succeed")
	}
	if set.Adopt("test", child) {
		t.Error("expected second insert to be rejected")
	}
	if set["test"] != Recipe(parent) {
		t.Error("expected parent definition to survive")
	}
}

func TestKinds(t *testing.T) {
	t.Parallel()

	for r, want := range map[Recipe]RecipeKind{
		&Command{}: KindCommand,
		&Shell{}:   KindShell,
		&Module{}:  KindModule,
	} {
		if r.Kind() != want {
			t.Errorf("%T.Kind() = %q, want %q", r, r.Kind(), want)
		}
	}
}
