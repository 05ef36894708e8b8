package database

import (
	"os"
	"path/filepath"
	"testing"

	"filevault/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "memory"}
		got, err := NewStoreFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("NewStoreFromConfig() returned nil")
		}
		got.Close()
	})

	t.Run("sqlite store creates data dir", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")
		cfg := config.StoreConfig{Type: "sqlite", DataDir: dataDir}
		got, err := NewStoreFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dataDir, StoreFileName)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("badger store", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "badger", DataDir: t.TempDir()}
		got, err := NewStoreFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		got.Close()
	})

	errorCases := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"sqlite without data_dir", config.StoreConfig{Type: "sqlite"}},
		{"badger without data_dir", config.StoreConfig{Type: "badger"}},
		{"unknown type", config.StoreConfig{Type: "postgres"}},
		{"empty type", config.StoreConfig{}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(tt.cfg, nil)
			if err == nil {
				got.Close()
				t.Error("NewStoreFromConfig() expected error, got nil")
			}
		})
	}
}
