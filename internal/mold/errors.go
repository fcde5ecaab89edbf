// SPDX-License-Identifier: MPL-2.0

package mold

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecipeNotFound is the sentinel wrapped by RecipeNotFoundError.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrModuleNotFound is the sentinel wrapped by ModuleNotFoundError.
	ErrModuleNotFound = errors.New("module not found")

	// ErrIncludeCycle is the sentinel wrapped by IncludeCycleError.
	ErrIncludeCycle = errors.New("include cycle")
)

type (
	// RecipeNotFoundError is returned when a name does not resolve to a recipe.
	RecipeNotFoundError struct {
		Name string
	}

	// ModuleNotFoundError is returned when the head of a qualified name is
	// neither a module recipe nor an include prefix.
	ModuleNotFoundError struct {
		// Name is the full name that was requested.
		Name string
		// Module is the unresolved head, without the trailing separator.
		Module string
	}

	// IncludeCycleError is returned when a moldfile includes itself, directly
	// or through other includes.
	IncludeCycleError struct {
		// Chain lists the files being opened; the last entry repeats an earlier one.
		Chain []string
	}
)

// Error implements the error interface.
func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("recipe %q not found", e.Name)
}

// Unwrap returns ErrRecipeNotFound so callers can use errors.Is for programmatic detection.
func (e *RecipeNotFoundError) Unwrap() error { return ErrRecipeNotFound }

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %q not found while resolving %q", e.Module, e.Name)
}

// Unwrap returns ErrModuleNotFound so callers can use errors.Is for programmatic detection.
func (e *ModuleNotFoundError) Unwrap() error { return ErrModuleNotFound }

// Error implements the error interface.
func (e *IncludeCycleError) Error() string {
	return "include cycle detected: " + strings.Join(e.Chain, " -> ")
}

// Unwrap returns ErrIncludeCycle so callers can use errors.Is for programmatic detection.
func (e *IncludeCycleError) Unwrap() error { return ErrIncludeCycle }
