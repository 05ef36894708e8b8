package encryption

import (
	"fmt"

	"filevault/internal/config"
	"filevault/internal/vfs"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil for type "none" (or empty): contents are stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (vfs.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
