// SPDX-License-Identifier: MPL-2.0

// Package platform checks names that become file names on every platform.
package platform

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// windowsReservedNames cannot be used as file names on Windows, whatever
// their extension.
var windowsReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// ErrInvalidFileName is returned for names that are not portable file names.
var ErrInvalidFileName = errors.New("invalid file name")

// IsWindowsReservedName reports whether name, without its extension, is a
// Windows device name.
func IsWindowsReservedName(name string) bool {
	base, _, _ := strings.Cut(strings.ToUpper(name), ".")
	return slices.Contains(windowsReservedNames, base)
}

// ValidateFileName checks that name can be used as a file name on Windows,
// macOS and Linux alike.
func ValidateFileName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidFileName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, `<>:"/\|?*`):
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidFileName, name)
	case strings.HasSuffix(name, ".") || strings.HasSuffix(name, " "):
		return fmt.Errorf("%w: %q ends with a dot or space", ErrInvalidFileName, name)
	case IsWindowsReservedName(name):
		return fmt.Errorf("%w: %q is reserved on Windows", ErrInvalidFileName, name)
	}
	for _, r := range name {
		if r < 0x20 {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidFileName, name)
		}
	}
	return nil
}
