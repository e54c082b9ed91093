// SPDX-License-Identifier: MPL-2.0

package dialect

import (
	_ "embed"
	"fmt"

	"github.com/sclkit/sclkit/pkg/cueutil"
)

//go:embed dialect_schema.cue
var dialectSchema []byte

// Load parses a CUE dialect definition, validates it against #Dialect and
// builds a Config with the given hooks installed.
func Load(data []byte, filename string, hooks Hooks) (*Config, error) {
	result, err := cueutil.ParseAndDecode[Definition](
		dialectSchema,
		data,
		"#Dialect",
		cueutil.WithFilename(filename),
	)
	if err != nil {
		return nil, fmt.Errorf("load dialect: %w", err)
	}

	cfg, err := New(*result.Value, hooks)
	if err != nil {
		return nil, fmt.Errorf("load dialect %s: %w", filename, err)
	}
	return cfg, nil
}
