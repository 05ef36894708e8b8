package testutil

import (
	"testing"

	"filevault/internal/database"
	"filevault/internal/vfs"
)

// NewTestStore creates an in-memory SQLite store with the schema migrated.
// The store is closed when the test completes.
func NewTestStore(t *testing.T) vfs.Store {
	t.Helper()
	return NewTestStoreWithQuota(t, 0)
}

// NewTestStoreWithQuota is NewTestStore with a content quota in bytes.
func NewTestStoreWithQuota(t *testing.T, quota int64) vfs.Store {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", quota)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// FailingStore wraps a Store and fails the operations named in Fail.
type FailingStore struct {
	vfs.Store
	Fail map[string]error
}

func (s *FailingStore) err(op string) error {
	if err, ok := s.Fail[op]; ok {
		return vfs.NewStoreError(op, err)
	}
	return nil
}

func (s *FailingStore) PutEntry(entry *vfs.Entry) error {
	if err := s.err("put entry"); err != nil {
		return err
	}
	return s.Store.PutEntry(entry)
}

func (s *FailingStore) ListByParent(parentID string) ([]*vfs.Entry, error) {
	if err := s.err("list entries"); err != nil {
		return nil, err
	}
	return s.Store.ListByParent(parentID)
}

func (s *FailingStore) DeleteEntryAndContent(id string) error {
	if err := s.err("delete entry and content"); err != nil {
		return err
	}
	return s.Store.DeleteEntryAndContent(id)
}
