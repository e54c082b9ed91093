// SPDX-License-Identifier: MPL-2.0

// Package store persists the committed element arena of one document.
//
// A Store only ever sees net changes produced by a commit, applied as one
// atomic unit. Two backends are provided: Memory, used by tests and
// throw-away documents, and SQLite, one database file per document.
package store

import (
	"context"
	"errors"

	"github.com/sclkit/sclkit/pkg/element"
)

// AttachmentTable is the additional table name that enables attachments.
const AttachmentTable = "attachedFiles"

var (
	// ErrAttachmentNotFound is returned when no attachment has the given id.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrAttachmentsUnsupported is returned when the dialect declares no
	// attachment table.
	ErrAttachmentsUnsupported = errors.New("attachments not supported by dialect")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

type (
	// Store is a persistence backend for one document.
	Store interface {
		// Load returns every committed record.
		Load(ctx context.Context) ([]element.Record, error)
		// Apply durably applies changes in order, all or nothing.
		Apply(ctx context.Context, changes []element.Change) error
		// PutAttachment stores or replaces a file attached to the document.
		PutAttachment(ctx context.Context, att Attachment) error
		// Attachment returns the attachment with the given id.
		Attachment(ctx context.Context, id string) (Attachment, error)
		// Close releases the backend.
		Close() error
	}

	// Attachment is an opaque file stored alongside a document.
	Attachment struct {
		ID       string
		Filename string
		Data     []byte
	}
)
