package recorder

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
)

// SecurityOptions configures protection of a capture body
type SecurityOptions struct {
	// Encryption settings
	EnableEncryption bool
	EncryptionKey    []byte // Should be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256

	// Integrity verification settings
	EnableIntegrityCheck bool
	IntegrityKey         []byte // Key for HMAC
}

// DefaultSecurityOptions returns the default security options (no security features enabled)
func DefaultSecurityOptions() SecurityOptions {
	return SecurityOptions{}
}

// WithEncryption enables encryption with the given key
func WithEncryption(key []byte) func(*SecurityOptions) {
	return func(opts *SecurityOptions) {
		opts.EnableEncryption = true
		opts.EncryptionKey = key
	}
}

// WithIntegrityCheck enables integrity checks with the given key
func WithIntegrityCheck(key []byte) func(*SecurityOptions) {
	return func(opts *SecurityOptions) {
		opts.EnableIntegrityCheck = true
		opts.IntegrityKey = key
	}
}

// NewSecurityOptions applies option funcs over the defaults
func NewSecurityOptions(opts ...func(*SecurityOptions)) SecurityOptions {
	o := DefaultSecurityOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// EncryptData encrypts data using AES-GCM. The nonce is prepended.
func EncryptData(data []byte, key []byte) ([]byte, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, errors.New("encryption key must be 16, 24, or 32 bytes long")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesGCM.Seal(nonce, nonce, data, nil), nil
}

// DecryptData decrypts data using AES-GCM
func DecryptData(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	n := aesGCM.NonceSize()
	if len(data) < n {
		return nil, errors.New("encrypted data too short")
	}
	return aesGCM.Open(nil, data[:n], data[n:], nil)
}

// CalculateHMAC generates an HMAC-SHA256 for the given data
func CalculateHMAC(data []byte, key []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// VerifyHMAC checks if the HMAC for the given data matches the expected value
func VerifyHMAC(data []byte, key []byte, expected []byte) bool {
	return hmac.Equal(CalculateHMAC(data, key), expected)
}
