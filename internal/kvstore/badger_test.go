package kvstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/vfs"
)

func newTestStore(t *testing.T, quota int64) *BadgerStore {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store, err := NewBadgerStore(Options{Quota: quota, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var testTime = time.UnixMilli(1700000000000)

func newEntry(name string, kind vfs.Kind, parentID string) *vfs.Entry {
	return &vfs.Entry{
		ID:         uuid.New().String(),
		Name:       name,
		Kind:       kind,
		ParentID:   parentID,
		CreatedAt:  testTime,
		ModifiedAt: testTime,
	}
}

func TestBadgerStore_EntryRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)

	entry := newEntry("report.pdf", vfs.KindFile, vfs.RootID)
	entry.Size = 3
	entry.ContentType = "application/pdf"
	require.NoError(t, store.PutEntryAndContent(entry, &vfs.Content{ID: entry.ID, Data: []byte("pdf")}))

	got, err := store.GetEntry(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Kind, got.Kind)
	assert.Equal(t, entry.Size, got.Size)
	assert.Equal(t, entry.ContentType, got.ContentType)
	assert.Equal(t, entry.ParentID, got.ParentID)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, entry.ModifiedAt.Equal(got.ModifiedAt))

	content, err := store.GetContent(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, []byte("pdf"), content.Data)
}

func TestBadgerStore_MissingReadsReturnNil(t *testing.T) {
	store := newTestStore(t, 0)

	entry, err := store.GetEntry("missing")
	require.NoError(t, err)
	assert.Nil(t, entry)

	content, err := store.GetContent("missing")
	require.NoError(t, err)
	assert.Nil(t, content)

	assert.NoError(t, store.DeleteEntry("missing"))
	assert.NoError(t, store.DeleteContent("missing"))
	assert.NoError(t, store.DeleteEntryAndContent("missing"))
}

func TestBadgerStore_ListByParent(t *testing.T) {
	store := newTestStore(t, 0)

	docs := newEntry("Docs", vfs.KindFolder, vfs.RootID)
	pics := newEntry("Pictures", vfs.KindFolder, vfs.RootID)
	nested := newEntry("Nested", vfs.KindFolder, docs.ID)
	for _, e := range []*vfs.Entry{docs, pics, nested} {
		require.NoError(t, store.PutEntry(e))
	}

	root, err := store.ListByParent(vfs.RootID)
	require.NoError(t, err)
	assert.Len(t, root, 2)

	children, err := store.ListByParent(docs.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, nested.ID, children[0].ID)

	empty, err := store.ListByParent(pics.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBadgerStore_MoveUpdatesIndex(t *testing.T) {
	store := newTestStore(t, 0)

	docs := newEntry("Docs", vfs.KindFolder, vfs.RootID)
	file := newEntry("a.txt", vfs.KindFile, vfs.RootID)
	require.NoError(t, store.PutEntry(docs))
	require.NoError(t, store.PutEntryAndContent(file, &vfs.Content{ID: file.ID, Data: []byte("a")}))

	file.ParentID = docs.ID
	require.NoError(t, store.PutEntry(file))

	root, err := store.ListByParent(vfs.RootID)
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, docs.ID, root[0].ID)

	children, err := store.ListByParent(docs.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, file.ID, children[0].ID)

	content, err := store.GetContent(file.ID)
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, []byte("a"), content.Data)
}

func TestBadgerStore_DeleteEntryAndContent(t *testing.T) {
	store := newTestStore(t, 0)

	file := newEntry("a.txt", vfs.KindFile, vfs.RootID)
	require.NoError(t, store.PutEntryAndContent(file, &vfs.Content{ID: file.ID, Data: []byte("a")}))
	require.NoError(t, store.DeleteEntryAndContent(file.ID))

	got, err := store.GetEntry(file.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	content, err := store.GetContent(file.ID)
	require.NoError(t, err)
	assert.Nil(t, content)

	root, err := store.ListByParent(vfs.RootID)
	require.NoError(t, err)
	assert.Empty(t, root)
}

func TestBadgerStore_Quota(t *testing.T) {
	store := newTestStore(t, 10)

	big := newEntry("big.bin", vfs.KindFile, vfs.RootID)
	err := store.PutEntryAndContent(big, &vfs.Content{ID: big.ID, Data: make([]byte, 11)})
	require.ErrorIs(t, err, vfs.ErrQuotaExceeded)
	var storeErr *vfs.StoreError
	assert.ErrorAs(t, err, &storeErr)

	got, err := store.GetEntry(big.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "rejected write must not leave an entry")

	root, err := store.ListByParent(vfs.RootID)
	require.NoError(t, err)
	assert.Empty(t, root, "rejected write must not leave an index key")

	small := newEntry("small.bin", vfs.KindFile, vfs.RootID)
	require.NoError(t, store.PutEntryAndContent(small, &vfs.Content{ID: small.ID, Data: make([]byte, 8)}))

	// Replacing a payload only counts the new size.
	require.NoError(t, store.PutContent(&vfs.Content{ID: small.ID, Data: make([]byte, 10)}))
}

func contentBytes(t *testing.T, store *BadgerStore) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = readInt(txn, []byte(keyContentBytes))
		return err
	}))
	return n
}

func TestBadgerStore_QuotaCountsExactBytesInValueLog(t *testing.T) {
	dir := t.TempDir()
	const mb = 1 << 20
	const quota = 3 * mb

	// Payloads above the value threshold live in the value log.
	store, err := NewBadgerStore(Options{Dir: dir, Quota: quota})
	require.NoError(t, err)

	a := newEntry("a.bin", vfs.KindFile, vfs.RootID)
	require.NoError(t, store.PutEntryAndContent(a, &vfs.Content{ID: a.ID, Data: make([]byte, 2*mb)}))

	b := newEntry("b.bin", vfs.KindFile, vfs.RootID)
	err = store.PutEntryAndContent(b, &vfs.Content{ID: b.ID, Data: make([]byte, mb+1)})
	require.ErrorIs(t, err, vfs.ErrQuotaExceeded)
	require.NoError(t, store.PutEntryAndContent(b, &vfs.Content{ID: b.ID, Data: make([]byte, mb)}))
	assert.Equal(t, int64(quota), contentBytes(t, store))

	// Replacing a payload with one of the same size still fits exactly.
	require.NoError(t, store.PutContent(&vfs.Content{ID: a.ID, Data: make([]byte, 2*mb)}))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(Options{Dir: dir, Quota: quota})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(quota), contentBytes(t, reopened))

	require.NoError(t, reopened.DeleteEntryAndContent(a.ID))
	assert.Equal(t, int64(mb), contentBytes(t, reopened))

	c := newEntry("c.bin", vfs.KindFile, vfs.RootID)
	require.NoError(t, reopened.PutEntryAndContent(c, &vfs.Content{ID: c.ID, Data: make([]byte, 2*mb)}))

	require.NoError(t, reopened.DeleteContent(b.ID))
	require.NoError(t, reopened.DeleteContent(b.ID))
	assert.Equal(t, int64(2*mb), contentBytes(t, reopened))
}

func TestBadgerStore_DeleteEntryLeavesContent(t *testing.T) {
	store := newTestStore(t, 0)

	file := newEntry("a.txt", vfs.KindFile, vfs.RootID)
	require.NoError(t, store.PutEntryAndContent(file, &vfs.Content{ID: file.ID, Data: []byte("a")}))

	// No cascading: the content record outlives its entry.
	require.NoError(t, store.DeleteEntry(file.ID))

	got, err := store.GetEntry(file.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	content, err := store.GetContent(file.ID)
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, []byte("a"), content.Data)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerStore(Options{Dir: dir})
	require.NoError(t, err)
	folder := newEntry("Docs", vfs.KindFolder, vfs.RootID)
	require.NoError(t, store.PutEntry(folder))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(Options{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetEntry(folder.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Docs", got.Name)
}

func TestBadgerStore_BackupTo(t *testing.T) {
	store := newTestStore(t, 0)
	require.NoError(t, store.PutEntry(newEntry("Docs", vfs.KindFolder, vfs.RootID)))

	dest := filepath.Join(t.TempDir(), "snapshot.badger")
	require.NoError(t, store.BackupTo(dest))
	assert.FileExists(t, dest)
}
