// Package service implements sealing and opening of session payloads with
// authenticated encryption.
package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/wishcraft/gatekeeper/internal/crypto/domain"
	cryptoService "github.com/wishcraft/gatekeeper/internal/crypto/service"
	sessionDomain "github.com/wishcraft/gatekeeper/internal/session/domain"
)

// nonceSize is the AEAD nonce size; both supported ciphers use 12 bytes.
const nonceSize = 12

// Sealer seals session payloads into opaque blobs and opens them back.
type Sealer interface {
	// Seal serializes and encrypts a payload into a cookie-safe blob.
	Seal(payload *sessionDomain.Payload) (string, error)

	// Open decrypts and validates a blob. Any failure (malformed blob,
	// authentication failure, expiry) returns ErrSessionInvalid.
	Open(blob string) (*sessionDomain.Payload, error)
}

// sessionSealer implements Sealer with an AEAD cipher over a derived key.
type sessionSealer struct {
	aead cryptoService.AEAD
	now  func() time.Time
}

// NewSealer creates a Sealer from the configured key material.
//
// The AEAD key is derived from the session key and salt with HKDF-SHA256
// (info "session-sealing-v1") so encryption usage never shares raw key bytes
// with any other consumer of the key material. The derived key is zeroed once
// the cipher holds its expanded schedule.
func NewSealer(
	key, salt []byte,
	alg cryptoDomain.Algorithm,
	manager cryptoService.AEADManager,
) (Sealer, error) {
	derived, err := deriveSealingKey(key, salt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(derived)

	aead, err := manager.CreateCipher(derived, alg)
	if err != nil {
		return nil, err
	}

	return &sessionSealer{aead: aead, now: time.Now}, nil
}

// deriveSealingKey uses HKDF-SHA256 to derive a 32-byte AEAD key.
func deriveSealingKey(key, salt []byte) ([]byte, error) {
	info := []byte("session-sealing-v1")
	reader := hkdf.New(sha256.New, key, salt, info)

	derived := make([]byte, 32)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, err
	}

	return derived, nil
}

// Seal serializes the payload to JSON, encrypts it, and encodes
// nonce || ciphertext as base64url. The nonce is not secret; prepending it
// keeps the blob self-contained for decryption.
func (s *sessionSealer) Seal(payload *sessionDomain.Payload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(plaintext)

	ciphertext, nonce, err := s.aead.Encrypt(plaintext, nil)
	if err != nil {
		return "", err
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// Open decodes and decrypts a blob and checks expiry.
//
// Every failure path returns the same ErrSessionInvalid so a caller cannot
// distinguish a tampered blob from an expired one. A payload that failed the
// authentication tag is never partially trusted.
func (s *sessionSealer) Open(blob string) (*sessionDomain.Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return nil, sessionDomain.ErrSessionInvalid
	}

	if len(raw) <= nonceSize {
		return nil, sessionDomain.ErrSessionInvalid
	}

	nonce := raw[:nonceSize]
	ciphertext := raw[nonceSize:]

	plaintext, err := s.aead.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return nil, sessionDomain.ErrSessionInvalid
	}
	defer cryptoDomain.Zero(plaintext)

	var payload sessionDomain.Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, sessionDomain.ErrSessionInvalid
	}

	if payload.Expired(s.now()) {
		return nil, sessionDomain.ErrSessionInvalid
	}

	return &payload, nil
}
