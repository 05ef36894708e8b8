package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"filevault/internal/config"
	"filevault/internal/kvstore"
	"filevault/internal/vfs"
)

// StoreFileName is the SQLite database file created inside the data directory.
const StoreFileName = "filevault.db"

// NewStoreFromConfig creates a Store implementation based on the store config type.
// logger receives the Badger engine's internal messages and is unused by SQLite.
func NewStoreFromConfig(cfg config.StoreConfig, logger *logrus.Logger) (vfs.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, StoreFileName), cfg.QuotaBytes)
	case "memory":
		return NewSQLiteStore(":memory:", cfg.QuotaBytes)
	case "badger":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for badger store")
		}
		return kvstore.NewBadgerStore(kvstore.Options{
			Dir:    cfg.DataDir,
			Quota:  cfg.QuotaBytes,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
