// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sclkit/sclkit/pkg/idgen"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/scl/history"
)

const (
	// LogLevelDebug logs commits and every command step.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only errors.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidExtractLevel is returned when an ExtractLevel is not an anchor tag.
	ErrInvalidExtractLevel = errors.New("invalid extract level")
	// ErrInvalidDataDirPath is returned when a DataDirPath value is whitespace-only.
	ErrInvalidDataDirPath = errors.New("invalid data dir path")
	// ErrInvalidHistoryConfig is the sentinel error wrapped by InvalidHistoryConfigError.
	ErrInvalidHistoryConfig = errors.New("invalid history config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	extractLevels = []ExtractLevel{scl.TagSubstation, scl.TagVoltageLevel, scl.TagBay}
)

type (
	// LogLevel is the minimum level the CLI logger reports.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ExtractLevel is the element tag extracted subtrees are anchored under.
	ExtractLevel string

	// InvalidExtractLevelError is returned when an ExtractLevel is not one of
	// Substation, VoltageLevel or Bay.
	InvalidExtractLevelError struct {
		Value ExtractLevel
	}

	// DataDirPath is the directory document databases are kept in.
	// The zero value ("") means the platform default.
	DataDirPath string

	// InvalidDataDirPathError is returned when a DataDirPath value is
	// non-empty but whitespace-only.
	InvalidDataDirPathError struct {
		Value DataDirPath
	}

	// InvalidHistoryConfigError collects the field errors of a HistoryConfig.
	InvalidHistoryConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DataDir holds one SQLite database per imported document.
		DataDir DataDirPath `json:"data_dir" mapstructure:"data_dir"`
		// IDStrategy selects how element ids and uuids are generated.
		IDStrategy idgen.Strategy `json:"id_strategy" mapstructure:"id_strategy"`
		// LogLevel is the CLI log level
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// History holds the defaults of new history entries
		History HistoryConfig `json:"history" mapstructure:"history"`
		// Extract holds the defaults of extraction commands
		Extract ExtractConfig `json:"extract" mapstructure:"extract"`
	}

	// HistoryConfig holds history entry defaults.
	HistoryConfig struct {
		// Who is recorded in Hitem/@who when no --who is given.
		Who string `json:"who" mapstructure:"who"`
		// Tool is recorded in Header/@toolID when a Header is created.
		Tool string `json:"tool" mapstructure:"tool"`
		// VersionPolicy is "keep" or "increment".
		VersionPolicy history.VersionPolicy `json:"version_policy" mapstructure:"version_policy"`
	}

	// ExtractConfig holds extraction defaults.
	ExtractConfig struct {
		// Level is the anchor extracted subtrees land under.
		Level ExtractLevel `json:"level" mapstructure:"level"`
		// ResolveDataTypes copies the referenced DataTypeTemplates entries.
		ResolveDataTypes bool `json:"resolve_data_types" mapstructure:"resolve_data_types"`
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the ExtractLevel.
func (l ExtractLevel) String() string { return string(l) }

// IsValid returns whether the ExtractLevel names an anchor element.
func (l ExtractLevel) IsValid() (bool, []error) {
	if !slices.Contains(extractLevels, l) {
		return false, []error{&InvalidExtractLevelError{Value: l}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExtractLevelError.
func (e *InvalidExtractLevelError) Error() string {
	return fmt.Sprintf("invalid extract level %q (valid: Substation, VoltageLevel, Bay)", e.Value)
}

// Unwrap returns ErrInvalidExtractLevel for errors.Is() compatibility.
func (e *InvalidExtractLevelError) Unwrap() error { return ErrInvalidExtractLevel }

// String returns the string representation of the DataDirPath.
func (p DataDirPath) String() string { return string(p) }

// IsValid returns whether the DataDirPath is valid.
// The zero value ("") is valid; non-zero values must not be whitespace-only.
func (p DataDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDataDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDataDirPathError.
func (e *InvalidDataDirPathError) Error() string {
	return fmt.Sprintf("invalid data dir path %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDataDirPath for errors.Is() compatibility.
func (e *InvalidDataDirPathError) Unwrap() error { return ErrInvalidDataDirPath }

// IsValid returns whether the HistoryConfig has valid fields.
// Who and Tool are free text.
func (c HistoryConfig) IsValid() (bool, []error) {
	var errs []error
	if _, err := history.ParseVersionPolicy(string(c.VersionPolicy)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidHistoryConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHistoryConfigError.
func (e *InvalidHistoryConfigError) Error() string {
	return fmt.Sprintf("invalid history config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidHistoryConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidHistoryConfigError) Unwrap() []error {
	return append([]error{ErrInvalidHistoryConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.DataDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.IDStrategy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.History.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Extract.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		IDStrategy: idgen.StrategyUUIDv4,
		LogLevel:   LogLevelInfo,
		History: HistoryConfig{
			Tool:          AppName,
			VersionPolicy: history.VersionKeep,
		},
		Extract: ExtractConfig{
			Level: scl.TagSubstation,
		},
	}
}
