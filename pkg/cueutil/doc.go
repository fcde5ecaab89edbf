// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against embedded schemas.
//
// Every CUE-backed format in mold (moldfiles and the user configuration)
// goes through the same three steps: compile the embedded schema, unify the
// user document with one of its definitions, and validate the result.
// Callers then either decode into a Go struct with Decode or export the
// value with JSON when mapping order must be preserved.
//
//	//go:embed moldfile_schema.cue
//	var schema []byte
//
//	doc, err := cueutil.JSON(schema, data, "#Moldfile", cueutil.WithFilename(path))
package cueutil
