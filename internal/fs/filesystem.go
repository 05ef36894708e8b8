package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filevault/internal/vfs"
)

// OSFilesystemManager is the real filesystem implementation of vfs.FilesystemManager.
type OSFilesystemManager struct {
	ignore []string // patterns from config, applied under every root

	mu       sync.Mutex
	matchers map[string]*IgnoreMatcher // by root directory
}

// NewOSFilesystemManager creates a filesystem manager that operates on the
// real filesystem. ignore holds extra patterns from config.
func NewOSFilesystemManager(ignore []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore:   ignore,
		matchers: make(map[string]*IgnoreMatcher),
	}
}

// Resolve validates a raw path and returns a Path object.
// Only regular files and directories are accepted.
func (m *OSFilesystemManager) Resolve(rawPath string) (*vfs.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	if !info.Mode().IsRegular() && !info.IsDir() {
		return nil, fmt.Errorf("unsupported file type %s: %s", info.Mode().Type(), absPath)
	}

	return vfs.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *vfs.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// ReadDir lists the regular files and directories directly inside path,
// sorted by name. Symlinks and special files are skipped.
func (m *OSFilesystemManager) ReadDir(path *vfs.Path) ([]*vfs.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	entries, err := os.ReadDir(path.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []*vfs.Path
	for _, entry := range entries {
		if !entry.Type().IsRegular() && !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		paths = append(paths, vfs.NewPath(filepath.Join(path.String(), entry.Name()), entry.IsDir(), info))
	}
	return paths, nil
}

// IsIgnored reports whether path matches an ignore pattern. Patterns come
// from the defaults, config, and the ignore file at root; path patterns are
// matched relative to root.
func (m *OSFilesystemManager) IsIgnored(path *vfs.Path, root string) (bool, error) {
	matcher, err := m.matcherFor(root)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, fmt.Errorf("relative path of %s: %w", path.String(), err)
	}
	return matcher.Match(rel), nil
}

func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if matcher, ok := m.matchers[root]; ok {
		return matcher, nil
	}

	matcher, err := LoadIgnoreMatcher(root, m.ignore)
	if err != nil {
		return nil, err
	}
	m.matchers[root] = matcher
	return matcher, nil
}

// MkdirAll creates dir and any missing parents.
func (m *OSFilesystemManager) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// WriteFile writes data from r to destPath using a temp file in the same
// directory and a rename, so readers never see a partial file. The write
// fails if the byte count differs from size.
func (m *OSFilesystemManager) WriteFile(destPath string, r io.Reader, size int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ vfs.FilesystemManager = (*OSFilesystemManager)(nil)
