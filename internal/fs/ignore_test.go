package fs

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewIgnoreMatcher_Parsing(t *testing.T) {
	t.Parallel()
	m := NewIgnoreMatcher([]string{"", "   ", "# editor files", " *.swp ", "node_modules/", "dist/*.map", "[", "\r"})

	if want := []string{"*.swp", "node_modules"}; !slices.Equal(m.names, want) {
		t.Errorf("names = %q, want %q", m.names, want)
	}
	if want := []string{"dist/*.map"}; !slices.Equal(m.paths, want) {
		t.Errorf("paths = %q, want %q", m.paths, want)
	}
}

func TestIgnoreMatcher_Match(t *testing.T) {
	m := NewIgnoreMatcher([]string{"*.swp", "node_modules", "dist/*.map", "cache/?", "~*"})

	tests := []struct {
		rel  string
		want bool
	}{
		{"notes.swp", true},
		{filepath.Join("drafts", "notes.swp"), true},
		{"notes.swpx", false},
		{"node_modules", true},
		{filepath.Join("web", "node_modules"), true},
		{filepath.Join("web", "node_modules", "pkg", "index.js"), true},
		{filepath.Join("dist", "app.js.map"), true},
		{filepath.Join("web", "dist", "app.js.map"), false},
		{filepath.Join("dist", "app.js"), false},
		{filepath.Join("cache", "a"), true},
		{filepath.Join("cache", "ab"), false},
		{"~lock.docx", true},
		{"report.docx", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.rel, func(t *testing.T) {
			t.Parallel()
			if got := m.Match(tt.rel); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}

	if NewIgnoreMatcher(nil).Match("anything") {
		t.Error("empty matcher matched a path")
	}
}

func TestLoadIgnoreMatcher(t *testing.T) {
	t.Parallel()

	t.Run("without ignore file", func(t *testing.T) {
		t.Parallel()
		m, err := LoadIgnoreMatcher(t.TempDir(), []string{"*.bak"})
		if err != nil {
			t.Fatalf("LoadIgnoreMatcher() error = %v", err)
		}
		for _, rel := range []string{IgnoreFileName, filepath.Join("photos", ".DS_Store"), filepath.Join("a", "Thumbs.db"), "old.bak"} {
			if !m.Match(rel) {
				t.Errorf("Match(%q) = false, want true", rel)
			}
		}
		if m.Match("photo.jpg") {
			t.Error("Match(photo.jpg) = true, want false")
		}
	})

	t.Run("reads ignore file at root", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("# local\r\ntmp/*\r\n\r\n*.part\n"), 0644); err != nil {
			t.Fatalf("writing ignore file: %v", err)
		}

		m, err := LoadIgnoreMatcher(root, nil)
		if err != nil {
			t.Fatalf("LoadIgnoreMatcher() error = %v", err)
		}
		if !m.Match(filepath.Join("tmp", "x")) || !m.Match("movie.part") {
			t.Errorf("patterns from %s not applied: %+v", IgnoreFileName, m)
		}
		if m.Match("tmp") {
			t.Error("Match(tmp) = true; tmp/* should only cover children")
		}
	})

	t.Run("unreadable ignore file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		// A directory where the file should be cannot be read as one.
		if err := os.Mkdir(filepath.Join(root, IgnoreFileName), 0755); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		if _, err := LoadIgnoreMatcher(root, nil); err == nil {
			t.Error("LoadIgnoreMatcher() succeeded, want error")
		}
	})
}
