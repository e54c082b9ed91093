// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Table: {
	name:    string & !=""
	columns: int & >0
	indexed: bool | *false
	comment?: string
}
`

type testTable struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Indexed bool   `json:"indexed"`
	Comment string `json:"comment,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid data parses successfully", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "sclElements"
columns: 9
comment: "arena"
`)
		result, err := ParseAndDecode[testTable]([]byte(testSchema), data, "#Table")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Name != "sclElements" {
			t.Errorf("expected name=sclElements, got %q", result.Value.Name)
		}
		if result.Value.Columns != 9 {
			t.Errorf("expected columns=9, got %d", result.Value.Columns)
		}
		if result.Value.Indexed {
			t.Error("expected schema default indexed=false")
		}
		if result.Unified.Err() != nil {
			t.Errorf("unified value has error: %v", result.Unified.Err())
		}
	})

	t.Run("constraint violation returns error", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: ""
columns: 1
`)
		if _, err := ParseAndDecode[testTable]([]byte(testSchema), data, "#Table"); err == nil {
			t.Error("expected error for empty name")
		}
	})

	t.Run("missing required field returns error", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "t"`)
		if _, err := ParseAndDecode[testTable]([]byte(testSchema), data, "#Table"); err == nil {
			t.Error("expected error for missing columns")
		}
	})

	t.Run("WithFilename sets filename in errors", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "t"
columns: "many"
`)
		_, err := ParseAndDecode[testTable]([]byte(testSchema), data, "#Table", WithFilename("tables.cue"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "tables.cue") {
			t.Errorf("error should contain filename, got: %v", err)
		}
	})

	t.Run("unknown definition is an internal error", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testTable]([]byte(testSchema), []byte(`name: "t"`), "#Missing")
		if err == nil || !strings.Contains(err.Error(), "#Missing") {
			t.Errorf("expected error naming the definition, got %v", err)
		}
	})
}

func TestParseAndDecode_FileSizeLimit(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("a", 200))
	_, err := ParseAndDecode[testTable]([]byte(testSchema), data, "#Table", WithMaxFileSize(100))
	if err == nil {
		t.Fatal("expected error for oversized file")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("error should mention size limit, got: %v", err)
	}
}

func TestParseAndDecodeString(t *testing.T) {
	t.Parallel()

	result, err := ParseAndDecodeString[testTable](testSchema, []byte(`name: "t", columns: 2`), "#Table")
	if err != nil {
		t.Fatalf("ParseAndDecodeString failed: %v", err)
	}
	if result.Value.Name != "t" {
		t.Errorf("expected name=t, got %q", result.Value.Name)
	}
}

func TestParseToMap(t *testing.T) {
	t.Parallel()

	schema := []byte(`
#Config: {
	data_dir?: string
	log_level?: "debug" | "info" | "warn" | "error"
}
`)

	m, err := ParseToMap(schema, []byte(`log_level: "debug"`), "#Config", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseToMap failed: %v", err)
	}
	if m["log_level"] != "debug" {
		t.Errorf("expected log_level=debug, got %v", m["log_level"])
	}
	if _, ok := m["data_dir"]; ok {
		t.Error("unset optional field should not be decoded")
	}

	if _, err := ParseToMap(schema, []byte(`log_level: "trace"`), "#Config", WithConcrete(false)); err == nil {
		t.Error("expected error for value outside the disjunction")
	}
}
