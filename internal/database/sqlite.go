package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/database/migrations"
	"filevault/internal/vfs"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements vfs.Store on SQLite. Entries and contents live in
// two tables; the parent index is idx_entries_parent_id.
type SQLiteStore struct {
	db      *sql.DB
	queries *queries
	path    string
	quota   int64 // max total content bytes; 0 is unlimited
}

// NewSQLiteStore opens the database at path, migrates its schema to the
// latest version and verifies it. path can be a file path or ":memory:".
// Opening an already migrated database leaves it unchanged.
func NewSQLiteStore(path string, quota int64) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		queries: newQueries(db),
		path:    path,
		quota:   quota,
	}, nil
}

// NewSQLiteStoreFromDB wraps an existing, already migrated connection.
func NewSQLiteStoreFromDB(db *sql.DB, quota int64) *SQLiteStore {
	return &SQLiteStore{
		db:      db,
		queries: newQueries(db),
		quota:   quota,
	}
}

// OpenConnection opens and configures a SQLite connection.
// The pool is limited to one connection: an in-memory database exists per
// connection, and foreign_keys is a per-connection pragma.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Entry operations

func (s *SQLiteStore) PutEntry(entry *vfs.Entry) error {
	if err := s.queries.UpsertEntry(context.Background(), entry); err != nil {
		return vfs.NewStoreError("put entry", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntry(id string) (*vfs.Entry, error) {
	entry, err := s.queries.GetEntry(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, vfs.NewStoreError("get entry", err)
	}
	return entry, nil
}

func (s *SQLiteStore) ListByParent(parentID string) ([]*vfs.Entry, error) {
	entries, err := s.queries.ListEntriesByParent(context.Background(), parentID)
	if err != nil {
		return nil, vfs.NewStoreError("list entries", err)
	}
	return entries, nil
}

func (s *SQLiteStore) DeleteEntry(id string) error {
	if err := s.queries.DeleteEntry(context.Background(), id); err != nil {
		return vfs.NewStoreError("delete entry", err)
	}
	return nil
}

// Content operations

func (s *SQLiteStore) PutContent(content *vfs.Content) error {
	return s.inTx("put content", func(ctx context.Context, q *queries) error {
		if err := s.checkQuota(ctx, q, content); err != nil {
			return err
		}
		return q.UpsertContent(ctx, content)
	})
}

func (s *SQLiteStore) GetContent(id string) (*vfs.Content, error) {
	content, err := s.queries.GetContent(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, vfs.NewStoreError("get content", err)
	}
	return content, nil
}

func (s *SQLiteStore) DeleteContent(id string) error {
	if err := s.queries.DeleteContent(context.Background(), id); err != nil {
		return vfs.NewStoreError("delete content", err)
	}
	return nil
}

// PutEntryAndContent writes a file's entry and content in a single
// transaction. On any failure neither record is written.
func (s *SQLiteStore) PutEntryAndContent(entry *vfs.Entry, content *vfs.Content) error {
	return s.inTx("put entry and content", func(ctx context.Context, q *queries) error {
		if err := q.UpsertEntry(ctx, entry); err != nil {
			return fmt.Errorf("inserting entry: %w", err)
		}
		if err := s.checkQuota(ctx, q, content); err != nil {
			return err
		}
		if err := q.UpsertContent(ctx, content); err != nil {
			return fmt.Errorf("inserting content: %w", err)
		}
		return nil
	})
}

// DeleteEntryAndContent removes a file's content, then its entry, in a single transaction.
func (s *SQLiteStore) DeleteEntryAndContent(id string) error {
	return s.inTx("delete entry and content", func(ctx context.Context, q *queries) error {
		if err := q.DeleteContent(ctx, id); err != nil {
			return fmt.Errorf("deleting content: %w", err)
		}
		if err := q.DeleteEntry(ctx, id); err != nil {
			return fmt.Errorf("deleting entry: %w", err)
		}
		return nil
	})
}

// checkQuota fails with ErrQuotaExceeded if storing content would push the
// total past the quota. Existing content under the same id is not counted,
// since it is about to be replaced.
func (s *SQLiteStore) checkQuota(ctx context.Context, q *queries, content *vfs.Content) error {
	if s.quota <= 0 {
		return nil
	}
	used, err := q.ContentBytesExcluding(ctx, content.ID)
	if err != nil {
		return fmt.Errorf("measuring stored content: %w", err)
	}
	if used+int64(len(content.Data)) > s.quota {
		return fmt.Errorf("%w: %d of %d bytes used, %d requested", vfs.ErrQuotaExceeded, used, s.quota, len(content.Data))
	}
	return nil
}

// inTx runs fn in a transaction and commits it if fn succeeds.
// Any error is returned as a StoreError for op.
func (s *SQLiteStore) inTx(op string, fn func(ctx context.Context, q *queries) error) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vfs.NewStoreError(op, fmt.Errorf("starting transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(ctx, s.queries.withTx(tx)); err != nil {
		return vfs.NewStoreError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return vfs.NewStoreError(op, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return vfs.NewStoreError("backup", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ vfs.Store       = (*SQLiteStore)(nil)
	_ vfs.Snapshotter = (*SQLiteStore)(nil)
)
