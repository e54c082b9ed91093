// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/sclkit/sclkit/pkg/element"
)

// Memory is an in-process Store. Records are kept in first-insertion order.
type Memory struct {
	mu          sync.RWMutex
	records     map[string]element.Record
	order       []string
	attachments map[string]Attachment
	closed      bool
}

// NewMemory returns an empty Memory store seeded with records.
func NewMemory(records ...element.Record) *Memory {
	m := &Memory{
		records:     make(map[string]element.Record, len(records)),
		attachments: make(map[string]Attachment),
	}
	for _, rec := range records {
		m.put(rec)
	}
	return m
}

func (m *Memory) put(rec element.Record) {
	if _, ok := m.records[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = rec.Clone()
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context) ([]element.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([]element.Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id].Clone())
	}
	return out, nil
}

// Apply implements Store. The whole batch is applied under one lock.
func (m *Memory) Apply(ctx context.Context, changes []element.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	for _, change := range changes {
		switch change.Status {
		case element.StatusDeleted:
			delete(m.records, change.Record.ID)
			m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == change.Record.ID })
		default:
			m.put(change.Record)
		}
	}
	return nil
}

// PutAttachment implements Store.
func (m *Memory) PutAttachment(ctx context.Context, att Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	att.Data = slices.Clone(att.Data)
	m.attachments[att.ID] = att
	return nil
}

// Attachment implements Store.
func (m *Memory) Attachment(ctx context.Context, id string) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Attachment{}, ErrClosed
	}
	att, ok := m.attachments[id]
	if !ok {
		return Attachment{}, ErrAttachmentNotFound
	}
	att.Data = slices.Clone(att.Data)
	return att, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
