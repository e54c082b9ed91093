// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the unified CUE value, for callers that need to inspect
	// more than what the Go type captures.
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition found at
// schemaPath (e.g. "#Dialect", "#Config"), validates the result and decodes
// it into T. Errors carry the CUE path of the offending field.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	unified, err := unify(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	var result T
	if err := unified.value.Decode(&result); err != nil {
		return nil, FormatError(err, unified.filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified.value,
	}, nil
}

// ParseAndDecodeString is a convenience wrapper that accepts schema as string.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

// ParseToMap validates data against the schema definition and decodes it to
// a generic map, for consumers such as Viper that merge untyped config maps.
func ParseToMap(schema, data []byte, schemaPath string, opts ...Option) (map[string]any, error) {
	unified, err := unify(schema, data, schemaPath, opts...)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := unified.value.Decode(&out); err != nil {
		return nil, FormatError(err, unified.filename)
	}
	return out, nil
}

type unifiedValue struct {
	value    cue.Value
	filename string
}

func unify(schema, data []byte, schemaPath string, opts ...Option) (unifiedValue, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return unifiedValue{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return unifiedValue{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return unifiedValue{}, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return unifiedValue{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return unifiedValue{}, FormatError(err, filename)
	}

	return unifiedValue{value: unified, filename: filename}, nil
}
