// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The dialect loader and the application config both follow the same
// 3-step flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// # Usage
//
//	//go:embed dialect_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[dialect.Definition](
//	    schemaBytes,
//	    definitionBytes,
//	    "#Dialect",
//	    cueutil.WithFilename("scl_2019c1.cue"),
//	)
//	if err != nil {
//	    return nil, err  // Error includes CUE path for debugging
//	}
//	return result.Value, nil
package cueutil
