package domain

import (
	"github.com/wishcraft/gatekeeper/internal/errors"
)

// Cryptographic operation error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not supported.
	// Supported: AESGCM (aes-gcm), ChaCha20 (chacha20-poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption or authentication-tag failure.
	// The specific cause (wrong key, tampered ciphertext, bad nonce) is never
	// disclosed to avoid aiding an attacker.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
