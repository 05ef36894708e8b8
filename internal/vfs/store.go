package vfs

// Store is the storage engine behind the filesystem service.
// It persists two record groups, entries and contents, keyed by entry id,
// with a secondary index on the entry's parent id.
//
// Reads of missing records return nil with no error. Every other failure is
// returned as a *StoreError. The store does not validate the tree: parent
// existence, cascading and acyclicity are the service's concern.
type Store interface {
	// PutEntry inserts or replaces an entry. Replacing an entry leaves its content untouched.
	PutEntry(entry *Entry) error

	// GetEntry returns the entry with the given id, or nil if none exists.
	GetEntry(id string) (*Entry, error)

	// ListByParent returns every entry whose ParentID equals parentID, in no particular order.
	ListByParent(parentID string) ([]*Entry, error)

	// PutContent inserts or replaces the payload for a file id.
	PutContent(content *Content) error

	// GetContent returns the payload for id, or nil if none exists.
	GetContent(id string) (*Content, error)

	// DeleteEntry removes a single entry record. Missing ids are not an error.
	// It does not touch the content record. The SQLite store refuses to delete
	// a file entry whose content still exists; the Badger store allows it and
	// leaves the content behind. Use DeleteEntryAndContent for files.
	DeleteEntry(id string) error

	// DeleteContent removes a single content record. Missing ids are not an error.
	DeleteContent(id string) error

	// PutEntryAndContent writes both records in one transaction.
	PutEntryAndContent(entry *Entry, content *Content) error

	// DeleteEntryAndContent removes a file's content and entry in one transaction.
	DeleteEntryAndContent(id string) error

	// Close releases the store.
	Close() error
}

// Snapshotter is implemented by stores that can write a consistent copy of
// themselves to a host path.
type Snapshotter interface {
	BackupTo(destPath string) error
}
