package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filevault/internal/config"
	"filevault/internal/vfs"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *FileVaultApp {
	t.Helper()

	cfg := config.NewConfig(t.TempDir())
	cfg.Store = config.StoreConfig{Type: "memory"}
	if mutate != nil {
		mutate(cfg)
	}

	a, err := NewFileVaultApp(cfg, "test", "", func() (string, error) { return "pw", nil })
	if err != nil {
		t.Fatalf("NewFileVaultApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewFileVaultApp_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"bad store type", func(c *config.Config) { c.Store.Type = "cloud" }},
		{"bad encryption type", func(c *config.Config) { c.Encryption.Type = "rot13" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig(t.TempDir())
			cfg.Store = config.StoreConfig{Type: "memory"}
			tt.mutate(cfg)

			a, err := NewFileVaultApp(cfg, "test", "", nil)
			if err == nil {
				a.Close()
				t.Fatal("NewFileVaultApp() expected error")
			}
		})
	}
}

func TestFileVaultApp_OpenFolder(t *testing.T) {
	a := newTestApp(t, nil)
	svc := a.Service()

	docs, err := svc.CreateFolder("Docs")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	svc.NavigateInto(docs.ID, docs.Name)
	work, err := svc.CreateFolder("Work")
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	file, err := svc.Upload("notes.txt", "text/plain", []byte("hi"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	svc.NavigateToDepth(0)

	t.Run("rebuilds ancestry", func(t *testing.T) {
		if err := a.OpenFolder(work.ID); err != nil {
			t.Fatalf("OpenFolder() error = %v", err)
		}
		stack := svc.Stack()
		want := []string{vfs.RootID, docs.ID, work.ID}
		if len(stack) != len(want) {
			t.Fatalf("Stack() has %d frames, want %d", len(stack), len(want))
		}
		for i, f := range stack {
			if f.ID != want[i] {
				t.Errorf("Stack()[%d].ID = %q, want %q", i, f.ID, want[i])
			}
		}
	})

	t.Run("root", func(t *testing.T) {
		if err := a.OpenFolder(""); err != nil {
			t.Fatalf("OpenFolder() error = %v", err)
		}
		if got := svc.CurrentFolder().ID; got != vfs.RootID {
			t.Errorf("CurrentFolder() = %q, want root", got)
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		if err := a.OpenFolder("nope"); !errors.Is(err, vfs.ErrNotFound) {
			t.Errorf("OpenFolder() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("file is not a folder", func(t *testing.T) {
		if err := a.OpenFolder(file.ID); err == nil {
			t.Error("OpenFolder() on a file should return error")
		}
	})
}

func TestFileVaultApp_ImportExport(t *testing.T) {
	a := newTestApp(t, nil)

	src := filepath.Join(t.TempDir(), "project")
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "readme.md"), []byte("# hi"), 0644)
	os.WriteFile(filepath.Join(src, "sub", "data.json"), []byte(`{"a":1}`), 0644)

	entry, err := a.Import(src)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !entry.IsFolder() || entry.Name != "project" {
		t.Fatalf("Import() = %+v, want folder named project", entry)
	}

	dest := filepath.Join(t.TempDir(), "out")
	written, err := a.Export(entry.ID, dest)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(written) != 2 {
		t.Errorf("Export() wrote %d files, want 2", len(written))
	}

	got, err := os.ReadFile(filepath.Join(dest, "project", "sub", "data.json"))
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("exported content = %q", got)
	}
}

func TestFileVaultApp_EncryptedContent(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.Encryption.Type = "test" })

	if err := a.SetupEncryption("pw"); err != nil {
		t.Fatalf("SetupEncryption() error = %v", err)
	}

	e, err := a.Service().Upload("secret.txt", "text/plain", []byte("top secret"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	var buf bytes.Buffer
	if err := a.ReadContent(e.ID, &buf); err != nil {
		t.Fatalf("ReadContent() error = %v", err)
	}
	if buf.String() != "top secret" {
		t.Errorf("ReadContent() = %q, want %q", buf.String(), "top secret")
	}
}

func TestFileVaultApp_SetupEncryptionWithoutEncryptor(t *testing.T) {
	a := newTestApp(t, nil)
	if err := a.SetupEncryption("pw"); err == nil {
		t.Error("SetupEncryption() with type none should return error")
	}
}

func TestFileVaultApp_Snapshot(t *testing.T) {
	a := newTestApp(t, nil)
	if _, err := a.Service().CreateFolder("Docs"); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "snap.db")
	if err := a.Snapshot(dest); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestFileVaultApp_CloseWritesLog(t *testing.T) {
	cfg := config.NewConfig(t.TempDir())
	cfg.Store = config.StoreConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "data")}

	a, err := NewFileVaultApp(cfg, "mkdir", "Docs", nil)
	if err != nil {
		t.Fatalf("NewFileVaultApp() error = %v", err)
	}
	a.Fail()
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !bytes.Contains(data, []byte("command finished\tcommand=mkdir\tstatus=error")) {
		t.Errorf("log missing closing line: %q", data)
	}
}
