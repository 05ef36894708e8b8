package vfs

import "time"

// Kind distinguishes folder entries from file entries.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// RootID is the parent id of top-level entries. It never names a stored Entry.
const RootID = "root"

// RootName is the display name of the root navigation frame.
const RootName = "My Files"

// Entry is the metadata record for a file or folder in the tree.
type Entry struct {
	ID          string
	Name        string
	Kind        Kind
	Size        int64  // 0 for folders; exact content length for files
	ContentType string // empty for folders
	ParentID    string // RootID for top-level entries
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// IsFolder reports whether the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Content is the binary payload of a file entry, keyed by the entry's id.
type Content struct {
	ID   string
	Data []byte
}

// Frame is one level of the navigation stack.
type Frame struct {
	ID   string
	Name string
}
