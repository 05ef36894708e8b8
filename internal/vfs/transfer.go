package vfs

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Import copies a host file, or a host directory tree, into the current folder.
// Directories become folders; files are uploaded with a detected content type.
// Descendants matching the ignore patterns, relative to path, are skipped.
// Returns the entry created for path itself.
func (s *Service) Import(path *Path) (*Entry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.importPath(s.CurrentFolder().ID, path, path.String())
}

func (s *Service) importPath(parentID string, path *Path, root string) (*Entry, error) {
	name := filepath.Base(path.String())
	if !path.IsDir() {
		return s.importFile(parentID, name, path)
	}

	folder, err := s.createFolderIn(parentID, name)
	if err != nil {
		return nil, fmt.Errorf("creating folder %s: %w", name, err)
	}

	children, err := s.fsmgr.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	for _, child := range children {
		ignored, err := s.fsmgr.IsIgnored(child, root)
		if err != nil {
			return nil, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			s.logger.Debug("path ignored", "path", child.String())
			continue
		}
		if _, err := s.importPath(folder.ID, child, root); err != nil {
			return nil, err
		}
	}

	return folder, nil
}

func (s *Service) importFile(parentID, name string, path *Path) (*Entry, error) {
	r, err := s.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path.String(), err)
	}

	entry, err := s.uploadIn(parentID, name, "", data)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	return entry, nil
}

// Export writes an entry to destDir on the host. A folder is written as a
// directory holding its whole subtree. Returns the host paths of written files.
// Entries with the same name in one folder overwrite each other on the host.
func (s *Service) Export(id, destDir string) ([]string, error) {
	entry, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	var written []string
	visited := map[string]bool{}
	if err := s.exportEntry(entry, destDir, visited, &written); err != nil {
		return written, err
	}

	s.logger.Info("entry exported", "id", id, "dest", destDir, "files", len(written))
	return written, nil
}

func (s *Service) exportEntry(entry *Entry, destDir string, visited map[string]bool, written *[]string) error {
	if visited[entry.ID] {
		return fmt.Errorf("exporting %s: %w", entry.ID, ErrCycle)
	}
	visited[entry.ID] = true

	target := filepath.Join(destDir, hostName(entry.Name))

	if !entry.IsFolder() {
		content, err := s.store.GetContent(entry.ID)
		if err != nil {
			return err
		}
		if content == nil {
			return fmt.Errorf("%w: content of %s", ErrNotFound, entry.ID)
		}
		if err := s.fsmgr.WriteFile(target, bytes.NewReader(content.Data), int64(len(content.Data))); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		*written = append(*written, target)
		return nil
	}

	if err := s.fsmgr.MkdirAll(target); err != nil {
		return fmt.Errorf("creating directory %s: %w", target, err)
	}

	children, err := s.store.ListByParent(entry.ID)
	if err != nil {
		return err
	}
	sortEntries(children, SortState{By: SortByName, Ascending: true})

	for _, child := range children {
		if err := s.exportEntry(child, target, visited, written); err != nil {
			return err
		}
	}
	return nil
}

var hostNameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// hostName maps a display name to a single safe host path element.
func hostName(name string) string {
	n := hostNameReplacer.Replace(name)
	if n == "" || n == "." || n == ".." {
		return "_"
	}
	return n
}
