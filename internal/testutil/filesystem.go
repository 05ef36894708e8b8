package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	fvfs "filevault/internal/fs"
	"filevault/internal/vfs"
)

// MockFile represents a file or directory in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory vfs.FilesystemManager for testing.
// Paths are stored cleaned and absolute; parents are not created implicitly
// by AddFile, so tests add the directories they need.
type MockFilesystemManager struct {
	files   map[string]*MockFile
	ignore  *fvfs.IgnoreMatcher
	Written []string // destination paths passed to WriteFile, in order
}

// NewMockFilesystemManager creates a new mock filesystem with the given ignore patterns.
func NewMockFilesystemManager(ignore ...string) *MockFilesystemManager {
	return &MockFilesystemManager{
		files:  make(map[string]*MockFile),
		ignore: fvfs.NewIgnoreMatcher(ignore),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[filepath.Clean(path)] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[filepath.Clean(path)] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// File returns the file at path, or nil.
func (m *MockFilesystemManager) File(path string) *MockFile {
	return m.files[filepath.Clean(path)]
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*vfs.Path, error) {
	absPath := filepath.Clean(rawPath)
	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return m.pathFor(absPath, file), nil
}

func (m *MockFilesystemManager) pathFor(absPath string, file *MockFile) *vfs.Path {
	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
	return vfs.NewPath(absPath, file.IsDirectory, info)
}

func (m *MockFilesystemManager) Open(path *vfs.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) ReadDir(path *vfs.Path) ([]*vfs.Path, error) {
	dir, ok := m.files[path.String()]
	if !ok || !dir.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", path.String())
	}

	var names []string
	for p := range m.files {
		if filepath.Dir(p) == path.String() && p != path.String() {
			names = append(names, p)
		}
	}
	slices.Sort(names)

	paths := make([]*vfs.Path, 0, len(names))
	for _, p := range names {
		paths = append(paths, m.pathFor(p, m.files[p]))
	}
	return paths, nil
}

func (m *MockFilesystemManager) IsIgnored(path *vfs.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, err
	}
	return m.ignore.Match(rel), nil
}

func (m *MockFilesystemManager) MkdirAll(dir string) error {
	dir = filepath.Clean(dir)
	for d := dir; d != "/" && d != "."; d = filepath.Dir(d) {
		if f, ok := m.files[d]; ok {
			if !f.IsDirectory {
				return fmt.Errorf("not a directory: %s", d)
			}
			continue
		}
		m.AddDirectory(d)
	}
	return nil
}

func (m *MockFilesystemManager) WriteFile(destPath string, r io.Reader, size int64) error {
	destPath = filepath.Clean(destPath)
	parent, ok := m.files[filepath.Dir(destPath)]
	if !ok || !parent.IsDirectory {
		return fmt.Errorf("parent directory missing: %s", filepath.Dir(destPath))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.AddFile(destPath, data)
	m.Written = append(m.Written, destPath)
	return nil
}

// Tree returns every path under root, relative to it, sorted. Directories end in "/".
func (m *MockFilesystemManager) Tree(root string) []string {
	root = filepath.Clean(root)
	var out []string
	for p, f := range m.files {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if f.IsDirectory {
			rel += "/"
		}
		out = append(out, rel)
	}
	slices.Sort(out)
	return out
}

type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

var _ vfs.FilesystemManager = (*MockFilesystemManager)(nil)
