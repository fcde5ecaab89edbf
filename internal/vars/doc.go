// SPDX-License-Identifier: MPL-2.0

// Package vars computes the variables visible to a recipe and expands
// $NAME references in recipe text.
//
// Lookups resolve against the variable map being built first, then against
// an EnvProvider (the process environment in production), and finally to
// the empty string. Expansion never fails: text the shell expander cannot
// parse is expanded with plain $NAME substitution instead.
package vars
