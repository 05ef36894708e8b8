package encryption

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/database"
	"filevault/internal/vfs"
)

func newSealedTestStore(t *testing.T, unlock UnlockFunc) (*SealedStore, *database.SQLiteStore) {
	t.Helper()
	inner, err := database.NewSQLiteStore(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })
	return NewSealedStore(inner, NewTestEncryptor(), unlock), inner
}

func testFile(id string, data []byte) (*vfs.Entry, *vfs.Content) {
	now := time.UnixMilli(1700000000000)
	entry := &vfs.Entry{
		ID:          id,
		Name:        id + ".txt",
		Kind:        vfs.KindFile,
		Size:        int64(len(data)),
		ContentType: "text/plain",
		ParentID:    vfs.RootID,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	return entry, &vfs.Content{ID: id, Data: data}
}

func unlockWith(e vfs.Encryptor, calls *int) UnlockFunc {
	return func() (vfs.DecryptionContext, error) {
		*calls++
		return e.Unlock("pw")
	}
}

func TestSealedStore_RoundTrip(t *testing.T) {
	calls := 0
	sealed, inner := newSealedTestStore(t, unlockWith(NewTestEncryptor(), &calls))

	entry, content := testFile("a", []byte("secret notes"))
	require.NoError(t, sealed.PutEntryAndContent(entry, content))

	atRest, err := inner.GetContent("a")
	require.NoError(t, err)
	require.NotNil(t, atRest)
	assert.NotEqual(t, []byte("secret notes"), atRest.Data, "content must be sealed at rest")

	got, err := sealed.GetContent("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("secret notes"), got.Data)

	// Entries are not sealed.
	e, err := sealed.GetEntry("a")
	require.NoError(t, err)
	assert.Equal(t, int64(len("secret notes")), e.Size)
}

func TestSealedStore_UnlocksOnce(t *testing.T) {
	calls := 0
	sealed, _ := newSealedTestStore(t, unlockWith(NewTestEncryptor(), &calls))

	for _, id := range []string{"a", "b"} {
		entry, content := testFile(id, []byte(id))
		require.NoError(t, sealed.PutEntryAndContent(entry, content))
	}
	assert.Equal(t, 0, calls, "writes must not need the passphrase")

	for _, id := range []string{"a", "b", "a"} {
		_, err := sealed.GetContent(id)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestSealedStore_MissingContent(t *testing.T) {
	calls := 0
	sealed, _ := newSealedTestStore(t, unlockWith(NewTestEncryptor(), &calls))

	got, err := sealed.GetContent("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, calls)
}

func TestSealedStore_UnlockFailure(t *testing.T) {
	sealed, _ := newSealedTestStore(t, func() (vfs.DecryptionContext, error) {
		return nil, errors.New("wrong passphrase")
	})

	entry, content := testFile("a", []byte("x"))
	require.NoError(t, sealed.PutEntryAndContent(entry, content))

	_, err := sealed.GetContent("a")
	var storeErr *vfs.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "open content", storeErr.Op)
}

func TestSealedStore_PlaintextAtRestIsRejected(t *testing.T) {
	calls := 0
	sealed, inner := newSealedTestStore(t, unlockWith(NewTestEncryptor(), &calls))

	entry, content := testFile("a", []byte("plain"))
	require.NoError(t, inner.PutEntryAndContent(entry, content))

	_, err := sealed.GetContent("a")
	assert.Error(t, err)
}

func TestSealedStore_BackupTo(t *testing.T) {
	calls := 0
	sealed, _ := newSealedTestStore(t, unlockWith(NewTestEncryptor(), &calls))

	dest := t.TempDir() + "/snapshot.db"
	require.NoError(t, sealed.BackupTo(dest))
	assert.FileExists(t, dest)
}
