package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"filevault/internal/app"
	"filevault/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a FileVaultApp. The caller must defer app.Close().
func newApp(command, args string) (*app.FileVaultApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewFileVaultApp(cfg, command, args, readPassphrase)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp wraps a command body with app setup and teardown. A failing body
// marks the session as failed before the app is closed.
func withApp(fn func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Name(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(a, cmd, args); err != nil {
			a.Fail()
			return err
		}
		return nil
	}
}

// readPassphrase takes the passphrase from FILEVAULT_PASSPHRASE, or prompts
// for it when stdin is a terminal.
func readPassphrase() (string, error) {
	env, err := app.LoadEnv()
	if err != nil {
		return "", err
	}
	if env.Passphrase != "" {
		return env.Passphrase, nil
	}
	return promptPassphrase("Passphrase: ")
}

func promptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase required: set FILEVAULT_PASSPHRASE or run from a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(p), nil
}

// validateName rejects names that are empty after trimming whitespace.
func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("name cannot be empty")
	}
	return trimmed, nil
}

var rootCmd = &cobra.Command{
	Use:           "filevault",
	Short:         "Local virtual filesystem for files and folders",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if storeType, _ := cmd.Flags().GetString("store"); storeType != "" {
			cfg.Store.Type = storeType
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Store:    %s\n", cfg.Store.Type)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		quota := "unlimited"
		if cfg.Store.QuotaBytes > 0 {
			quota = fmt.Sprintf("%d bytes", cfg.Store.QuotaBytes)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("Store:      %s %s\n", cfg.Store.Type, cfg.Store.DataDir)
		fmt.Printf("Quota:      %s\n", quota)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		if len(cfg.Filesystem.Ignore) > 0 {
			fmt.Printf("Ignore:     %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
		}
		return nil
	},
}

// encryption command
var encryptionCmd = &cobra.Command{
	Use:   "encryption",
	Short: "Manage encryption keys",
}

var encryptionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to seal file contents",
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		passphrase, err := readNewPassphrase()
		if err != nil {
			return err
		}
		if err := a.SetupEncryption(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		fmt.Println("Encryption keys created.")
		return nil
	}),
}

// readNewPassphrase prompts twice and requires both entries to match.
// FILEVAULT_PASSPHRASE skips the prompt.
func readNewPassphrase() (string, error) {
	env, err := app.LoadEnv()
	if err != nil {
		return "", err
	}
	if env.Passphrase != "" {
		return env.Passphrase, nil
	}

	first, err := promptPassphrase("New passphrase: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("passphrase cannot be empty")
	}
	second, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("store", "", "Store type: sqlite, badger or memory")

	encryptionCmd.AddCommand(encryptionInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(encryptionCmd)
}
