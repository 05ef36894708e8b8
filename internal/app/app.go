package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/encryption"
	"filevault/internal/fs"
	"filevault/internal/vfs"
)

// PassphraseFunc supplies the passphrase that unlocks the private key.
// It is only called when sealed content is first read.
type PassphraseFunc func() (string, error)

// FileVaultApp is the application layer between the CLI and the vfs.Service.
// It builds every dependency from config, opens the store exactly once and
// closes it (and the log file) on Close.
type FileVaultApp struct {
	cfg       *config.Config
	store     vfs.Store
	fsmgr     vfs.FilesystemManager
	encryptor vfs.Encryptor
	service   *vfs.Service
	session   *Session
	logger    *slog.Logger
	logFile   *os.File
}

// NewFileVaultApp creates a fully wired FileVaultApp from the given config.
// command and args identify the CLI invocation in the log.
// The caller must call Close when done.
func NewFileVaultApp(cfg *config.Config, command, args string, passphrase PassphraseFunc) (*FileVaultApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	session := NewSession(command, args, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, session.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Store, newEngineLogger(logFile))
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	var svcStore vfs.Store = store
	if enc != nil {
		svcStore = encryption.NewSealedStore(store, enc, unlockWith(enc, passphrase))
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
	svc := vfs.NewService(svcStore, fsmgr, &slogAdapter{l: logger}, vfs.RealClock{}, vfs.UUIDGenerator{})

	logger.Debug("command started", "command", command, "args", args, "store", cfg.Store.Type)

	return &FileVaultApp{
		cfg:       cfg,
		store:     svcStore,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		session:   session,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

func unlockWith(enc vfs.Encryptor, passphrase PassphraseFunc) encryption.UnlockFunc {
	return func() (vfs.DecryptionContext, error) {
		if passphrase == nil {
			return nil, fmt.Errorf("no passphrase available")
		}
		p, err := passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return enc.Unlock(p)
	}
}

// Service returns the filesystem service.
func (a *FileVaultApp) Service() *vfs.Service {
	return a.service
}

// OpenFolder makes id the current folder, rebuilding the navigation stack
// from the root so breadcrumbs show the folder's real ancestry.
// An empty id or the root id selects the root.
func (a *FileVaultApp) OpenFolder(id string) error {
	var frames []vfs.Frame
	seen := map[string]bool{}
	for cur := id; cur != "" && cur != vfs.RootID; {
		if seen[cur] {
			return fmt.Errorf("opening folder %s: %w", id, vfs.ErrCycle)
		}
		seen[cur] = true

		entry, err := a.service.Entry(cur)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: %s", vfs.ErrNotFound, cur)
		}
		if !entry.IsFolder() {
			return fmt.Errorf("%s is not a folder", entry.Name)
		}
		frames = append(frames, vfs.Frame{ID: entry.ID, Name: entry.Name})
		cur = entry.ParentID
	}

	a.service.NavigateToDepth(0)
	for i := len(frames) - 1; i >= 0; i-- {
		a.service.NavigateInto(frames[i].ID, frames[i].Name)
	}
	return nil
}

// Import resolves rawPath on the host and imports it into the current folder.
func (a *FileVaultApp) Import(rawPath string) (*vfs.Entry, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Import(p)
}

// Export writes entry id into the host directory destDir, creating it if needed.
func (a *FileVaultApp) Export(id, destDir string) ([]string, error) {
	abs, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.fsmgr.MkdirAll(abs); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}
	return a.service.Export(id, abs)
}

// ReadContent writes the content of file id to w.
func (a *FileVaultApp) ReadContent(id string, w io.Writer) error {
	p, err := a.service.Preview(id)
	if err != nil {
		return err
	}
	_, err = w.Write(p.Data)
	return err
}

// Snapshot writes a consistent copy of the store to destPath.
func (a *FileVaultApp) Snapshot(destPath string) error {
	snap, ok := a.store.(vfs.Snapshotter)
	if !ok {
		return fmt.Errorf("store type %s does not support snapshots", a.cfg.Store.Type)
	}
	if err := snap.BackupTo(destPath); err != nil {
		return err
	}
	a.logger.Info("snapshot written", "dest", destPath)
	return nil
}

// SetupEncryption generates the key pair for the configured encryptor.
func (a *FileVaultApp) SetupEncryption(passphrase string) error {
	if a.encryptor == nil {
		return errors.New("encryption type is none; set [encryption] type = \"age\" in the config first")
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return err
	}
	a.logger.Info("encryption keys created")
	return nil
}

// Fail marks the running command as failed for the closing log line.
func (a *FileVaultApp) Fail() {
	a.session.Fail()
}

// Close logs the command outcome and releases the store and the log file.
func (a *FileVaultApp) Close() error {
	a.logger.Info("command finished",
		"command", a.session.Command,
		"status", a.session.Status,
		"elapsed", a.session.Elapsed(time.Now()).Round(time.Millisecond))

	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
