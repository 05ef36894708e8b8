package encryption

import (
	"bytes"
	"fmt"
	"sync"

	"filevault/internal/vfs"
)

// UnlockFunc produces the decryption context for a session, typically by
// asking the user for a passphrase.
type UnlockFunc func() (vfs.DecryptionContext, error)

// SealedStore is a vfs.Store that encrypts content payloads before they reach
// the wrapped store and decrypts them on read. Entries pass through unchanged,
// so listing and navigation never need the passphrase. unlock runs at most once,
// on the first content read.
//
// Quotas on the wrapped store apply to sealed bytes, which are slightly larger
// than the plaintext recorded in Entry.Size.
type SealedStore struct {
	vfs.Store
	enc    vfs.Encryptor
	unlock UnlockFunc

	once      sync.Once
	dec       vfs.DecryptionContext
	unlockErr error
}

var (
	_ vfs.Store       = (*SealedStore)(nil)
	_ vfs.Snapshotter = (*SealedStore)(nil)
)

// NewSealedStore wraps inner so that contents are sealed with enc.
func NewSealedStore(inner vfs.Store, enc vfs.Encryptor, unlock UnlockFunc) *SealedStore {
	return &SealedStore{Store: inner, enc: enc, unlock: unlock}
}

func (s *SealedStore) PutContent(content *vfs.Content) error {
	sealed, err := s.seal(content)
	if err != nil {
		return err
	}
	return s.Store.PutContent(sealed)
}

func (s *SealedStore) PutEntryAndContent(entry *vfs.Entry, content *vfs.Content) error {
	sealed, err := s.seal(content)
	if err != nil {
		return err
	}
	return s.Store.PutEntryAndContent(entry, sealed)
}

func (s *SealedStore) GetContent(id string) (*vfs.Content, error) {
	content, err := s.Store.GetContent(id)
	if err != nil || content == nil {
		return content, err
	}

	dec, err := s.decryptionContext()
	if err != nil {
		return nil, vfs.NewStoreError("open content", err)
	}

	var plain bytes.Buffer
	if err := dec.Decrypt(bytes.NewReader(content.Data), &plain); err != nil {
		return nil, vfs.NewStoreError("open content", fmt.Errorf("content %s: %w", id, err))
	}
	return &vfs.Content{ID: id, Data: plain.Bytes()}, nil
}

// BackupTo delegates to the wrapped store. The snapshot holds sealed payloads.
func (s *SealedStore) BackupTo(destPath string) error {
	snap, ok := s.Store.(vfs.Snapshotter)
	if !ok {
		return vfs.NewStoreError("backup", fmt.Errorf("store does not support snapshots"))
	}
	return snap.BackupTo(destPath)
}

func (s *SealedStore) seal(content *vfs.Content) (*vfs.Content, error) {
	var buf bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(content.Data), &buf); err != nil {
		return nil, vfs.NewStoreError("seal content", fmt.Errorf("content %s: %w", content.ID, err))
	}
	return &vfs.Content{ID: content.ID, Data: buf.Bytes()}, nil
}

func (s *SealedStore) decryptionContext() (vfs.DecryptionContext, error) {
	s.once.Do(func() {
		if s.unlock == nil {
			s.unlockErr = fmt.Errorf("store is locked")
			return
		}
		s.dec, s.unlockErr = s.unlock()
	})
	return s.dec, s.unlockErr
}
