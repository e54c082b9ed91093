// SPDX-License-Identifier: MPL-2.0

// Package sclxml reads and writes element trees as XML documents.
package sclxml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sclkit/sclkit/pkg/dialect"
)

const (
	// DevNamespace is the namespace of tooling attributes that never reach
	// the element tree.
	DevNamespace = "http://sclkit.dev/dev"
	// DevPrefix is the prefix DevNamespace is exported with.
	DevPrefix = "dev"
	// DevIDAttribute carries an element id in DevNamespace.
	DevIDAttribute = "id"
)

var (
	// ErrUnsupportedExtension is returned for files the dialect does not read.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrNoRoot is returned when a document has no root element, or more
	// than one when exporting.
	ErrNoRoot = errors.New("document has no single root element")
	// ErrUnexpectedRoot is returned when the root tag is not the dialect root.
	ErrUnexpectedRoot = errors.New("unexpected root element")
	// ErrDuplicateID is returned when two elements carry the same dev:id.
	ErrDuplicateID = errors.New("duplicate element id")
)

// CheckExtension fails with ErrUnsupportedExtension unless the extension of
// filename is supported by cfg.
func CheckExtension(cfg *dialect.Config, filename string) error {
	ext := filepath.Ext(filename)
	if !cfg.SupportsExtension(ext) {
		return fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedExtension, ext, cfg.IO.SupportedFileExtensions)
	}
	return nil
}

// ImportFile checks the extension of path and imports it.
func ImportFile(path string, cfg *dialect.Config, opts Options) (*Result, error) {
	if err := CheckExtension(cfg, path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := Import(f, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return res, nil
}
