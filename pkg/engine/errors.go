// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned when a selector matches no element.
	ErrElementNotFound = errors.New("element not found")
	// ErrChildNotAllowed is returned when the dialect forbids a child tag
	// under its parent.
	ErrChildNotAllowed = errors.New("child not allowed")
	// ErrSingletonExists is returned when adding a second element of a
	// singleton tag.
	ErrSingletonExists = errors.New("singleton element already exists")
	// ErrDuplicateID is returned when a caller-supplied id is already in use.
	ErrDuplicateID = errors.New("duplicate element id")
	// ErrNoParent is returned when navigating above the root.
	ErrNoParent = errors.New("element has no parent")
	// ErrRootDeletion is returned when deleting the root element.
	ErrRootDeletion = errors.New("cannot delete the root element")
	// ErrInvalidDocument is returned when imported records do not form a
	// single rooted tree.
	ErrInvalidDocument = errors.New("invalid document")
)

// NotFoundError reports the selector that matched nothing. It wraps
// ErrElementNotFound for errors.Is().
type NotFoundError struct {
	Selector Selector
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Selector.ID == "" {
		return fmt.Sprintf("element not found: no %s", e.Selector.TagName)
	}
	return fmt.Sprintf("element not found: %s %q", e.Selector.TagName, e.Selector.ID)
}

// Unwrap returns ErrElementNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrElementNotFound }
