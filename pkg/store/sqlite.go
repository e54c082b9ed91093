// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"

	_ "modernc.org/sqlite"
)

//go:embed pragmas.sql
var pragmasSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// columnsByKeyPath maps dialect index key paths to element table columns.
// Multi-entry paths ("*children.id") have no column and are not indexed.
var columnsByKeyPath = map[string]string{
	"id":             "id",
	"tagName":        "tag_name",
	"parent.id":      "parent_id",
	"parent.tagName": "parent_tag",
}

var _ Store = (*SQLite)(nil)

// SQLite is a Store backed by one SQLite database file.
type SQLite struct {
	db          *sql.DB
	path        string
	elements    string
	attachments bool
}

// OpenSQLite opens or creates the document database at path, laying out the
// element table described by the dialect database config.
func OpenSQLite(ctx context.Context, path string, layout dialect.DatabaseConfig) (*SQLite, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?"+pragmaQuery())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	s := &SQLite{
		db:       db,
		path:     path,
		elements: layout.Elements.Name,
		attachments: slices.ContainsFunc(layout.AdditionalTables, func(t dialect.Table) bool {
			return t.Name == AttachmentTable
		}),
	}

	schema, err := s.schema(layout.Elements)
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return s, nil
}

// pragmaQuery turns pragmas.sql into _pragma DSN parameters, which the
// driver runs on every new connection.
func pragmaQuery() string {
	q := url.Values{}
	for _, line := range strings.Split(pragmasSQL, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		name, value, _ := strings.Cut(strings.TrimPrefix(line, "PRAGMA "), "=")
		q.Add("_pragma", strings.TrimSpace(name)+"("+strings.TrimSpace(value)+")")
	}
	return q.Encode()
}

func (s *SQLite) schema(table dialect.Table) (string, error) {
	if table.Name == "" {
		return "", errors.New("sqlite: dialect declares no element table")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %q (
	id         TEXT PRIMARY KEY,
	tag_name   TEXT NOT NULL,
	ns_uri     TEXT NOT NULL DEFAULT '',
	ns_prefix  TEXT NOT NULL DEFAULT '',
	value      TEXT NOT NULL DEFAULT '',
	parent_id  TEXT,
	parent_tag TEXT,
	attributes TEXT NOT NULL DEFAULT '[]',
	children   TEXT NOT NULL DEFAULT '[]'
);
`, table.Name)

	indexes, err := indexColumns(table.Schema)
	if err != nil {
		return "", fmt.Errorf("sqlite: table %s: %w", table.Name, err)
	}
	for _, cols := range indexes {
		name := table.Name + "_" + strings.Join(cols, "_")
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS %q ON %q (%s);\n", name, table.Name, strings.Join(cols, ", "))
	}

	if s.attachments {
		fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %q (
	id       TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file     BLOB NOT NULL
);
`, AttachmentTable)
	}
	return b.String(), nil
}

// indexColumns parses an index spec such as
// "id, tagName, [id+tagName], parent.id, *children.id" into the column sets
// to index. The primary key and multi-entry paths are skipped.
func indexColumns(spec string) ([][]string, error) {
	var out [][]string
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || entry == "id" || strings.HasPrefix(entry, "*") {
			continue
		}
		paths := []string{entry}
		if strings.HasPrefix(entry, "[") && strings.HasSuffix(entry, "]") {
			paths = strings.Split(strings.Trim(entry, "[]"), "+")
		}
		cols := make([]string, 0, len(paths))
		for _, p := range paths {
			col, ok := columnsByKeyPath[strings.TrimSpace(p)]
			if !ok {
				return nil, fmt.Errorf("unknown index key path %q", p)
			}
			cols = append(cols, col)
		}
		out = append(out, cols)
	}
	return out, nil
}

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) ([]element.Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, tag_name, ns_uri, ns_prefix, value, parent_id, parent_tag, attributes, children FROM %q ORDER BY rowid`,
		s.elements))
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}
	defer rows.Close()

	var out []element.Record
	for rows.Next() {
		var (
			rec                  element.Record
			parentID, parentTag  sql.NullString
			attrsJSON, childJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.TagName, &rec.Namespace.URI, &rec.Namespace.Prefix, &rec.Value,
			&parentID, &parentTag, &attrsJSON, &childJSON); err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		if parentID.Valid {
			rec.Parent = &element.Ref{ID: parentID.String, TagName: parentTag.String}
		}
		if err := json.Unmarshal([]byte(attrsJSON), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decoding attributes of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(childJSON), &rec.Children); err != nil {
			return nil, fmt.Errorf("decoding children of %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Apply implements Store. Changes are applied in order inside one
// transaction.
func (s *SQLite) Apply(ctx context.Context, changes []element.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := fmt.Sprintf(`INSERT INTO %q (id, tag_name, ns_uri, ns_prefix, value, parent_id, parent_tag, attributes, children)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	tag_name = excluded.tag_name,
	ns_uri = excluded.ns_uri,
	ns_prefix = excluded.ns_prefix,
	value = excluded.value,
	parent_id = excluded.parent_id,
	parent_tag = excluded.parent_tag,
	attributes = excluded.attributes,
	children = excluded.children`, s.elements)
	del := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, s.elements)

	for _, change := range changes {
		rec := change.Record
		if change.Status == element.StatusDeleted {
			if _, err := tx.ExecContext(ctx, del, rec.ID); err != nil {
				return fmt.Errorf("deleting %s: %w", rec.ID, err)
			}
			continue
		}

		attrs, err := json.Marshal(nonNil(rec.Attributes))
		if err != nil {
			return fmt.Errorf("encoding attributes of %s: %w", rec.ID, err)
		}
		children, err := json.Marshal(nonNil(rec.Children))
		if err != nil {
			return fmt.Errorf("encoding children of %s: %w", rec.ID, err)
		}
		var parentID, parentTag sql.NullString
		if rec.Parent != nil {
			parentID = sql.NullString{String: rec.Parent.ID, Valid: true}
			parentTag = sql.NullString{String: rec.Parent.TagName, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, upsert, rec.ID, rec.TagName, rec.Namespace.URI, rec.Namespace.Prefix,
			rec.Value, parentID, parentTag, string(attrs), string(children)); err != nil {
			return fmt.Errorf("writing %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// PutAttachment implements Store.
func (s *SQLite) PutAttachment(ctx context.Context, att Attachment) error {
	if !s.attachments {
		return ErrAttachmentsUnsupported
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %q (id, filename, file) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET filename = excluded.filename, file = excluded.file`, AttachmentTable),
		att.ID, att.Filename, nonNil(att.Data))
	if err != nil {
		return fmt.Errorf("writing attachment %s: %w", att.ID, err)
	}
	return nil
}

// Attachment implements Store.
func (s *SQLite) Attachment(ctx context.Context, id string) (Attachment, error) {
	if !s.attachments {
		return Attachment{}, ErrAttachmentsUnsupported
	}
	att := Attachment{ID: id}
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT filename, file FROM %q WHERE id = ?`, AttachmentTable), id).
		Scan(&att.Filename, &att.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Attachment{}, ErrAttachmentNotFound
	}
	if err != nil {
		return Attachment{}, fmt.Errorf("querying attachment %s: %w", id, err)
	}
	return att, nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
