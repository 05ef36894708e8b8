package database

import (
	"context"
	"database/sql"
	"time"

	"filevault/internal/vfs"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so queries run the same way
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db DBTX
}

func newQueries(db DBTX) *queries {
	return &queries{db: db}
}

func (q *queries) withTx(tx *sql.Tx) *queries {
	return &queries{db: tx}
}

const entryColumns = `id, name, kind, size, content_type, parent_id, created_at, modified_at`

// upsertEntry must not use INSERT OR REPLACE: a replace deletes the row first,
// which the contents foreign key rejects for files.
const upsertEntry = `INSERT INTO entries (` + entryColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    kind = excluded.kind,
    size = excluded.size,
    content_type = excluded.content_type,
    parent_id = excluded.parent_id,
    created_at = excluded.created_at,
    modified_at = excluded.modified_at`

func (q *queries) UpsertEntry(ctx context.Context, e *vfs.Entry) error {
	_, err := q.db.ExecContext(ctx, upsertEntry,
		e.ID,
		e.Name,
		string(e.Kind),
		e.Size,
		e.ContentType,
		e.ParentID,
		e.CreatedAt.UnixMilli(),
		e.ModifiedAt.UnixMilli(),
	)
	return err
}

const getEntry = `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

func (q *queries) GetEntry(ctx context.Context, id string) (*vfs.Entry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntry, id))
}

const listEntriesByParent = `SELECT ` + entryColumns + ` FROM entries WHERE parent_id = ?`

func (q *queries) ListEntriesByParent(ctx context.Context, parentID string) ([]*vfs.Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByParent, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*vfs.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *queries) DeleteEntry(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteEntry, id)
	return err
}

const upsertContent = `INSERT INTO contents (id, data) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET data = excluded.data`

func (q *queries) UpsertContent(ctx context.Context, c *vfs.Content) error {
	data := c.Data
	if data == nil {
		// A nil slice binds as NULL, which the NOT NULL column rejects.
		data = []byte{}
	}
	_, err := q.db.ExecContext(ctx, upsertContent, c.ID, data)
	return err
}

const getContent = `SELECT id, data FROM contents WHERE id = ?`

func (q *queries) GetContent(ctx context.Context, id string) (*vfs.Content, error) {
	var c vfs.Content
	if err := q.db.QueryRowContext(ctx, getContent, id).Scan(&c.ID, &c.Data); err != nil {
		return nil, err
	}
	return &c, nil
}

const deleteContent = `DELETE FROM contents WHERE id = ?`

func (q *queries) DeleteContent(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteContent, id)
	return err
}

const contentBytesExcluding = `SELECT COALESCE(SUM(LENGTH(data)), 0) FROM contents WHERE id != ?`

// ContentBytesExcluding returns the total stored content size, not counting id.
func (q *queries) ContentBytesExcluding(ctx context.Context, id string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, contentBytesExcluding, id).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*vfs.Entry, error) {
	var (
		e          vfs.Entry
		kind       string
		createdAt  int64
		modifiedAt int64
	)
	err := row.Scan(&e.ID, &e.Name, &kind, &e.Size, &e.ContentType, &e.ParentID, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = vfs.Kind(kind)
	e.CreatedAt = time.UnixMilli(createdAt)
	e.ModifiedAt = time.UnixMilli(modifiedAt)
	return &e, nil
}
