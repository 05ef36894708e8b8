package encryption

import (
	"bytes"
	"fmt"
	"io"

	"filevault/internal/vfs"
)

// testHeader marks payloads sealed by TestEncryptor.
var testHeader = []byte("FVSEAL\x00\x00")

// TestEncryptor is a deterministic stand-in for AgeEncryptor. It prepends
// testHeader on encrypt and strips it on decrypt, so sealed payloads differ
// from their plaintext without any real cryptography.
type TestEncryptor struct {
	setupCalls int
	passphrase string // when set, Unlock rejects any other passphrase
}

var _ vfs.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a TestEncryptor that unlocks with any passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// NewTestEncryptorWithPassphrase creates a TestEncryptor that only unlocks with passphrase.
func NewTestEncryptorWithPassphrase(passphrase string) *TestEncryptor {
	return &TestEncryptor{passphrase: passphrase}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalls++
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (vfs.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ vfs.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
