package vfs

import "io"

// FilesystemManager abstracts the host filesystem used by Import and Export,
// so those operations can be tested without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// ReadDir returns the regular files and directories directly inside path.
	ReadDir(path *Path) ([]*Path, error)

	// IsIgnored reports whether path, relative to root, matches an ignore pattern.
	IsIgnored(path *Path, root string) (bool, error)

	// MkdirAll creates a host directory and any missing parents.
	MkdirAll(dir string) error

	// WriteFile writes size bytes from r to destPath, replacing it atomically.
	WriteFile(destPath string, r io.Reader, size int64) error
}
