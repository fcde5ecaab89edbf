// SPDX-License-Identifier: MPL-2.0

// Package moldfile defines the moldfile data model and reads it from YAML
// or CUE documents.
//
// A moldfile declares recipes (commands, shell snippets or references to
// remote modules), global variables with conditional overlays, and includes
// of other moldfiles hosted in git repositories.
package moldfile

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidMoldfile is the sentinel wrapped by InvalidMoldfileError.
var ErrInvalidMoldfile = errors.New("invalid moldfile")

type (
	// Moldfile is one parsed configuration file.
	Moldfile struct {
		// Version is the requirement on the running mold version, e.g. "^0.6".
		Version string
		// Dir is the default working directory for recipes declared here.
		Dir string
		// Includes are remote moldfiles whose recipes are adopted under a prefix.
		Includes []Include
		// Recipes declared by this file, keyed by their unprefixed name.
		Recipes RecipeSet
		// Vars are the file's global variables.
		Vars VarMap
		// Environments are conditional overlays for Vars.
		Environments EnvMap
		// Path is the absolute path the file was read from.
		Path string
	}

	// InvalidMoldfileError describes a structural problem in a moldfile that
	// the decoder itself accepts, such as a recipe with no command.
	InvalidMoldfileError struct {
		Path   string
		Recipe string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidMoldfileError) Error() string {
	if e.Recipe != "" {
		return fmt.Sprintf("%s: recipe %q: %s", e.Path, e.Recipe, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidMoldfile so callers can use errors.Is for programmatic detection.
func (e *InvalidMoldfileError) Unwrap() error { return ErrInvalidMoldfile }

// OwnVars returns the file's global variables.
func (m *Moldfile) OwnVars() *VarMap { return &m.Vars }

// OwnEnvironments returns the file's conditional overlays.
func (m *Moldfile) OwnEnvironments() *EnvMap { return &m.Environments }

// BaseDir returns the directory containing the file.
func (m *Moldfile) BaseDir() string { return filepath.Dir(m.Path) }
