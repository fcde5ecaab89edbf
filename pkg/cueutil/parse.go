// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Unify compiles schema and data, unifies data with the definition at
// schemaPath and validates the result.
//
// Errors in the user data are formatted with FormatError; errors in the
// schema itself are reported as internal errors.
func Unify(schema, data []byte, schemaPath string, opts ...Option) (cue.Value, error) {
	o := resolve(opts)
	filename := o.filename

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), filename)
	}

	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	return unified, nil
}

// Decode unifies data with the schema and decodes the result into a T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*T, error) {
	unified, err := Unify(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, resolve(opts).filename)
	}
	return &result, nil
}

// JSON unifies data with the schema and returns the result rendered as
// JSON. Field order follows the user document, which matters to callers
// that treat mappings as ordered.
func JSON(schema, data []byte, schemaPath string, opts ...Option) ([]byte, error) {
	unified, err := Unify(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	out, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE value: %w", err)
	}
	return out, nil
}
