package vfs

import (
	"fmt"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Service is the folder-relative layer over a Store. It owns the navigation
// stack and view preferences, and enforces the tree rules the store does not:
// folder-scoped addressing, recursive delete and entry/content pairing.
//
// Navigation and view state live in memory only and reset with the process.
// Mutating operations are serialized, so concurrent callers never interleave
// a recursive delete with an upload into the folder being deleted.
type Service struct {
	store  Store
	fsmgr  FilesystemManager
	logger Logger
	clock  Clock
	idgen  IDGenerator

	writeMu sync.Mutex

	mu      sync.RWMutex
	stack   []Frame
	sortBy  SortKey
	sortAsc bool
	filter  string
	view    ViewMode
}

// NewService creates a Service positioned at the root folder, sorted by name
// ascending, with no filter and the grid view.
func NewService(store Store, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:   store,
		fsmgr:   fsmgr,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		stack:   []Frame{{ID: RootID, Name: RootName}},
		sortBy:  SortByName,
		sortAsc: true,
		view:    ViewGrid,
	}
}

// now returns the clock's time truncated to the millisecond precision the store persists.
func (s *Service) now() time.Time {
	return time.UnixMilli(s.clock.Now().UnixMilli())
}

// CreateFolder creates an empty folder inside the current folder.
// Names are not checked for collisions.
func (s *Service) CreateFolder(name string) (*Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.createFolderIn(s.CurrentFolder().ID, name)
}

func (s *Service) createFolderIn(parentID, name string) (*Entry, error) {
	now := s.now()
	entry := &Entry{
		ID:         s.idgen.New(),
		Name:       name,
		Kind:       KindFolder,
		ParentID:   parentID,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.store.PutEntry(entry); err != nil {
		return nil, err
	}

	s.logger.Info("folder created", "id", entry.ID, "name", name, "parent", parentID)
	return entry, nil
}

// Upload stores a new file in the current folder. The entry and its content
// are written atomically. An empty contentType is detected from data.
func (s *Service) Upload(name, contentType string, data []byte) (*Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.uploadIn(s.CurrentFolder().ID, name, contentType, data)
}

func (s *Service) uploadIn(parentID, name, contentType string, data []byte) (*Entry, error) {
	if data == nil {
		data = []byte{}
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	now := s.now()
	entry := &Entry{
		ID:          s.idgen.New(),
		Name:        name,
		Kind:        KindFile,
		Size:        int64(len(data)),
		ContentType: contentType,
		ParentID:    parentID,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := s.store.PutEntryAndContent(entry, &Content{ID: entry.ID, Data: data}); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded", "id", entry.ID, "name", name, "size", entry.Size, "parent", parentID)
	return entry, nil
}

// Rename changes an entry's display name. Any string is accepted; rejecting
// blank names is up to the caller.
func (s *Service) Rename(id, newName string) (*Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	entry.Name = newName
	entry.ModifiedAt = s.now()
	if err := s.store.PutEntry(entry); err != nil {
		return nil, err
	}

	s.logger.Info("entry renamed", "id", id, "name", newName)
	return entry, nil
}

// Move reparents an entry. The target is not checked: callers must not move
// a folder into itself or one of its descendants.
func (s *Service) Move(id, newParentID string) (*Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	entry.ParentID = newParentID
	entry.ModifiedAt = s.now()
	if err := s.store.PutEntry(entry); err != nil {
		return nil, err
	}

	s.logger.Info("entry moved", "id", id, "parent", newParentID)
	return entry, nil
}

// Entry returns the entry with the given id, or nil if it does not exist.
func (s *Service) Entry(id string) (*Entry, error) {
	return s.store.GetEntry(id)
}

// Content returns the payload of a file, or nil if it does not exist.
func (s *Service) Content(id string) (*Content, error) {
	return s.store.GetContent(id)
}

// mustGet loads an entry and converts absence into ErrNotFound.
func (s *Service) mustGet(id string) (*Entry, error) {
	entry, err := s.store.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry, nil
}
