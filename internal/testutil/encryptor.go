package testutil

import (
	"filevault/internal/encryption"
	"filevault/internal/vfs"
)

// NewSealedTestStore wraps store in a SealedStore backed by the deterministic
// test encryptor, unlocked on first read.
func NewSealedTestStore(store vfs.Store) *encryption.SealedStore {
	enc := encryption.NewTestEncryptor()
	return encryption.NewSealedStore(store, enc, func() (vfs.DecryptionContext, error) {
		return enc.Unlock("")
	})
}
