package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the environment variables filevault reads.
type Env struct {
	ConfigPath string `envconfig:"FILEVAULT_CONFIG_PATH"` // default: ~/.config/filevault.toml
	Home       string `envconfig:"FILEVAULT_HOME"`        // default: ~/.local/share/filevault
	Passphrase string `envconfig:"FILEVAULT_PASSPHRASE"`  // skips the passphrase prompt when set
}

// LoadEnv reads the FILEVAULT_* environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &env, nil
}

// GetDefaults returns application default paths, checking environment variables first.
func GetDefaults() (map[string]string, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}

	configPath := env.ConfigPath
	baseDir := env.Home
	if configPath == "" || baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(homeDir, ".config", "filevault.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(homeDir, ".local", "share", "filevault")
		}
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"data_dir":    filepath.Join(baseDir, "data"),
	}, nil
}
