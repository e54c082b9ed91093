// SPDX-License-Identifier: MPL-2.0

// Package idgen provides pluggable identifier generation.
//
// The engine, the hooks and the import path all take a Generator so the id
// strategy is chosen at startup, and tests can substitute a deterministic
// sequence.
package idgen

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	// StrategyUUIDv4 produces random RFC 9562 version 4 UUIDs.
	StrategyUUIDv4 Strategy = "uuid_v4"
	// StrategyUUIDv7 produces time-ordered RFC 9562 version 7 UUIDs.
	StrategyUUIDv7 Strategy = "uuid_v7"
)

// ErrInvalidStrategy is returned when a Strategy value is not recognized.
var ErrInvalidStrategy = errors.New("invalid id strategy")

type (
	// Generator produces unique string identifiers.
	Generator func() string

	// Strategy names a Generator constructor, as selected in configuration.
	Strategy string
)

// UUIDv4 returns a Generator producing random UUIDs.
func UUIDv4() Generator {
	return func() string {
		return uuid.NewString()
	}
}

// UUIDv7 returns a Generator producing time-sortable UUIDs.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Sequence returns a Generator that yields "<prefix>1", "<prefix>2", ...
// It is safe for concurrent use and intended for tests.
func Sequence(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// Default is the generator used when none is configured.
var Default = UUIDv4()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// IsValid returns whether the strategy is one of the defined values.
func (s Strategy) IsValid() (bool, []error) {
	switch s {
	case StrategyUUIDv4, StrategyUUIDv7:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (valid: uuid_v4, uuid_v7)", ErrInvalidStrategy, string(s))}
	}
}

// Generator returns the Generator for the strategy. The zero value maps to
// UUIDv4.
func (s Strategy) Generator() (Generator, error) {
	switch s {
	case "", StrategyUUIDv4:
		return UUIDv4(), nil
	case StrategyUUIDv7:
		return UUIDv7(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, string(s))
	}
}
