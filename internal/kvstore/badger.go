package kvstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"filevault/internal/vfs"
)

// Key layout. Each record group is a key prefix; the parent index holds one
// empty-valued key per entry so a prefix scan lists a folder's children.
// Every content record has a size key holding its exact length, and
// keyContentBytes holds their sum; all three change in one transaction.
const (
	prefixEntry   = "entry/"
	prefixContent = "content/"
	prefixSize    = "size/"
	prefixParent  = "parent/"

	keyContentBytes = "meta/content-bytes"
)

func entryKey(id string) []byte   { return []byte(prefixEntry + id) }
func contentKey(id string) []byte { return []byte(prefixContent + id) }
func sizeKey(id string) []byte    { return []byte(prefixSize + id) }

func parentPrefix(parentID string) []byte {
	return []byte(prefixParent + parentID + "\x00")
}

func parentKey(parentID, id string) []byte {
	return append(parentPrefix(parentID), id...)
}

// Options configures a BadgerStore.
type Options struct {
	Dir    string // data directory; empty runs Badger in memory
	Quota  int64  // max total content bytes; 0 is unlimited
	Logger *logrus.Logger
}

// BadgerStore implements vfs.Store on a Badger key-value database.
// Every mutation runs in a single Badger transaction, so an entry and its
// parent-index key are always written and removed together.
type BadgerStore struct {
	db    *badger.DB
	quota int64
}

// NewBadgerStore opens (or creates) a Badger database.
func NewBadgerStore(opts Options) (*BadgerStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	var bopts badger.Options
	if opts.Dir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating badger directory: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts = bopts.WithLogger(logger.WithField("component", "badger"))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	return &BadgerStore{db: db, quota: opts.Quota}, nil
}

// entryRecord is the persisted form of an entry. Timestamps are milliseconds since epoch.
type entryRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	ParentID    string `json:"parentId"`
	CreatedAt   int64  `json:"createdAt"`
	ModifiedAt  int64  `json:"modifiedAt"`
}

func encodeEntry(e *vfs.Entry) ([]byte, error) {
	return json.Marshal(entryRecord{
		ID:          e.ID,
		Name:        e.Name,
		Kind:        string(e.Kind),
		Size:        e.Size,
		ContentType: e.ContentType,
		ParentID:    e.ParentID,
		CreatedAt:   e.CreatedAt.UnixMilli(),
		ModifiedAt:  e.ModifiedAt.UnixMilli(),
	})
}

func decodeEntry(data []byte) (*vfs.Entry, error) {
	var r entryRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	return &vfs.Entry{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        vfs.Kind(r.Kind),
		Size:        r.Size,
		ContentType: r.ContentType,
		ParentID:    r.ParentID,
		CreatedAt:   time.UnixMilli(r.CreatedAt),
		ModifiedAt:  time.UnixMilli(r.ModifiedAt),
	}, nil
}

// getEntry reads an entry inside txn. Missing keys return nil.
func getEntry(txn *badger.Txn, id string) (*vfs.Entry, error) {
	item, err := txn.Get(entryKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var entry *vfs.Entry
	err = item.Value(func(val []byte) error {
		entry, err = decodeEntry(val)
		return err
	})
	return entry, err
}

// putEntry writes an entry and moves its index key if the parent changed.
func putEntry(txn *badger.Txn, entry *vfs.Entry) error {
	old, err := getEntry(txn, entry.ID)
	if err != nil {
		return err
	}
	if old != nil && old.ParentID != entry.ParentID {
		if err := txn.Delete(parentKey(old.ParentID, old.ID)); err != nil {
			return err
		}
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := txn.Set(entryKey(entry.ID), data); err != nil {
		return err
	}
	return txn.Set(parentKey(entry.ParentID, entry.ID), nil)
}

// deleteEntry removes an entry and its index key.
func deleteEntry(txn *badger.Txn, id string) error {
	old, err := getEntry(txn, id)
	if err != nil || old == nil {
		return err
	}
	if err := txn.Delete(parentKey(old.ParentID, id)); err != nil {
		return err
	}
	return txn.Delete(entryKey(id))
}

func (s *BadgerStore) PutEntry(entry *vfs.Entry) error {
	return s.update("put entry", func(txn *badger.Txn) error {
		return putEntry(txn, entry)
	})
}

func (s *BadgerStore) GetEntry(id string) (*vfs.Entry, error) {
	var entry *vfs.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = getEntry(txn, id)
		return err
	})
	if err != nil {
		return nil, vfs.NewStoreError("get entry", err)
	}
	return entry, nil
}

// ListByParent scans the parent index and loads each child entry.
func (s *BadgerStore) ListByParent(parentID string) ([]*vfs.Entry, error) {
	var entries []*vfs.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := parentPrefix(parentID)
		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}

		for _, id := range ids {
			entry, err := getEntry(txn, id)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("index references missing entry %s", id)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, vfs.NewStoreError("list entries", err)
	}
	return entries, nil
}

func (s *BadgerStore) DeleteEntry(id string) error {
	return s.update("delete entry", func(txn *badger.Txn) error {
		return deleteEntry(txn, id)
	})
}

func (s *BadgerStore) PutContent(content *vfs.Content) error {
	return s.update("put content", func(txn *badger.Txn) error {
		return s.putContent(txn, content)
	})
}

func (s *BadgerStore) putContent(txn *badger.Txn, content *vfs.Content) error {
	old, err := readInt(txn, sizeKey(content.ID))
	if err != nil {
		return err
	}
	used, err := readInt(txn, []byte(keyContentBytes))
	if err != nil {
		return err
	}

	size := int64(len(content.Data))
	if s.quota > 0 && used-old+size > s.quota {
		return fmt.Errorf("%w: %d of %d bytes used, %d requested", vfs.ErrQuotaExceeded, used-old, s.quota, size)
	}

	if err := txn.Set(contentKey(content.ID), content.Data); err != nil {
		return err
	}
	if err := txn.Set(sizeKey(content.ID), encodeInt(size)); err != nil {
		return err
	}
	return txn.Set([]byte(keyContentBytes), encodeInt(used-old+size))
}

// deleteContent removes a content record and takes its size off the total.
func deleteContent(txn *badger.Txn, id string) error {
	old, err := readInt(txn, sizeKey(id))
	if err != nil {
		return err
	}
	used, err := readInt(txn, []byte(keyContentBytes))
	if err != nil {
		return err
	}

	if err := txn.Delete(contentKey(id)); err != nil {
		return err
	}
	if err := txn.Delete(sizeKey(id)); err != nil {
		return err
	}
	if old == 0 {
		return nil
	}
	return txn.Set([]byte(keyContentBytes), encodeInt(used-old))
}

func encodeInt(n int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(n))
}

// readInt reads a counter written by encodeInt. Missing keys read as 0.
func readInt(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("counter %s has %d bytes", key, len(val))
		}
		n = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return n, err
}

func (s *BadgerStore) GetContent(id string) (*vfs.Content, error) {
	var content *vfs.Content
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if data == nil {
			data = []byte{}
		}
		content = &vfs.Content{ID: id, Data: data}
		return nil
	})
	if err != nil {
		return nil, vfs.NewStoreError("get content", err)
	}
	return content, nil
}

func (s *BadgerStore) DeleteContent(id string) error {
	return s.update("delete content", func(txn *badger.Txn) error {
		return deleteContent(txn, id)
	})
}

func (s *BadgerStore) PutEntryAndContent(entry *vfs.Entry, content *vfs.Content) error {
	return s.update("put entry and content", func(txn *badger.Txn) error {
		if err := putEntry(txn, entry); err != nil {
			return err
		}
		return s.putContent(txn, content)
	})
}

func (s *BadgerStore) DeleteEntryAndContent(id string) error {
	return s.update("delete entry and content", func(txn *badger.Txn) error {
		if err := deleteContent(txn, id); err != nil {
			return err
		}
		return deleteEntry(txn, id)
	})
}

// update runs fn in a read-write transaction; Badger commits only if fn succeeds.
func (s *BadgerStore) update(op string, fn func(txn *badger.Txn) error) error {
	if err := s.db.Update(fn); err != nil {
		return vfs.NewStoreError(op, err)
	}
	return nil
}

// BackupTo writes a full Badger backup stream to destPath.
func (s *BadgerStore) BackupTo(destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return vfs.NewStoreError("backup", err)
	}
	if _, err := s.db.Backup(f, 0); err != nil {
		f.Close()
		return vfs.NewStoreError("backup", err)
	}
	if err := f.Close(); err != nil {
		return vfs.NewStoreError("backup", err)
	}
	return nil
}

// Close closes the Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var (
	_ vfs.Store       = (*BadgerStore)(nil)
	_ vfs.Snapshotter = (*BadgerStore)(nil)
)
