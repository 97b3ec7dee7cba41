// Package keyring loads and holds the process-wide key material: the webhook
// signing secret and the session encryption key and salt. Keys are loaded once
// at startup and rotated only by redeployment.
package keyring

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	cryptoDomain "github.com/wishcraft/gatekeeper/internal/crypto/domain"
	"github.com/wishcraft/gatekeeper/internal/errors"
)

// Environment variable names for key material. Values are standard base64.
// When a KMS key URI is configured, the values are KMS-wrapped ciphertexts
// instead of raw keys.
const (
	EnvSigningSecret = "WEBHOOK_SIGNING_SECRET"
	EnvSessionKey    = "SESSION_ENCRYPTION_KEY"
	EnvSessionSalt   = "SESSION_ENCRYPTION_SALT"
)

// Minimum sizes after base64 decoding.
const (
	minSigningSecretSize = 32
	sessionKeySize       = 32
	minSessionSaltSize   = 16
)

// Key material error definitions.
var (
	// ErrSigningSecretNotSet indicates WEBHOOK_SIGNING_SECRET is not configured.
	ErrSigningSecretNotSet = errors.New("WEBHOOK_SIGNING_SECRET environment variable is not set")

	// ErrSessionKeyNotSet indicates SESSION_ENCRYPTION_KEY is not configured.
	ErrSessionKeyNotSet = errors.New("SESSION_ENCRYPTION_KEY environment variable is not set")

	// ErrSessionSaltNotSet indicates SESSION_ENCRYPTION_SALT is not configured.
	ErrSessionSaltNotSet = errors.New("SESSION_ENCRYPTION_SALT environment variable is not set")

	// ErrInvalidKeyBase64 indicates a key value is not valid base64.
	ErrInvalidKeyBase64 = errors.New("key material is not valid base64")

	// ErrKeyTooShort indicates a decoded key is below its minimum size.
	ErrKeyTooShort = errors.New("key material is too short")
)

// Keyring holds the loaded key material. Immutable for the process lifetime;
// Close zeroes the underlying bytes.
type Keyring struct {
	signingSecret []byte
	sessionKey    []byte
	sessionSalt   []byte
	ephemeral     bool
}

// SigningSecret returns the webhook HMAC signing secret.
func (k *Keyring) SigningSecret() []byte {
	return k.signingSecret
}

// SessionKey returns the 32-byte session encryption key.
func (k *Keyring) SessionKey() []byte {
	return k.sessionKey
}

// SessionSalt returns the HKDF salt paired with the session key.
func (k *Keyring) SessionSalt() []byte {
	return k.sessionSalt
}

// Ephemeral reports whether the key material was generated at startup rather
// than loaded from configuration. Ephemeral keys mean every existing session
// becomes unreadable on restart; only permitted outside production.
func (k *Keyring) Ephemeral() bool {
	return k.ephemeral
}

// Close zeroes all key material. Call during shutdown.
func (k *Keyring) Close() {
	cryptoDomain.Zero(k.signingSecret)
	cryptoDomain.Zero(k.sessionKey)
	cryptoDomain.Zero(k.sessionSalt)
	k.signingSecret = nil
	k.sessionKey = nil
	k.sessionSalt = nil
}

// Options controls key loading behavior.
type Options struct {
	// Production refuses to start without configured keys. Outside production
	// a missing key falls back to an ephemeral value with a loud warning.
	Production bool
	// KMSKeyURI, when non-empty, treats the env values as KMS-wrapped
	// ciphertexts and unwraps them through the keeper.
	KMSKeyURI string
}

// Load reads key material from the environment.
//
// In production all three variables are required: a missing or undersized key
// aborts startup. Outside production missing keys are replaced by freshly
// generated ephemeral values and a warning is logged, since prior sessions and
// pending webhook signatures will not survive a restart.
func Load(ctx context.Context, opts Options, logger *slog.Logger) (*Keyring, error) {
	var unwrap unwrapFunc
	if opts.KMSKeyURI != "" {
		keeper, err := openKeeper(ctx, opts.KMSKeyURI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open KMS keeper")
		}
		defer func() { _ = keeper.Close() }()
		unwrap = func(wrapped []byte) ([]byte, error) {
			return keeper.Decrypt(ctx, wrapped)
		}
	}

	keyring := &Keyring{}

	signingSecret, err := loadKey(EnvSigningSecret, minSigningSecretSize, unwrap, ErrSigningSecretNotSet)
	if err != nil {
		if opts.Production {
			keyring.Close()
			return nil, err
		}
		signingSecret = generateEphemeral(minSigningSecretSize, EnvSigningSecret, logger)
		keyring.ephemeral = true
	}
	keyring.signingSecret = signingSecret

	sessionKey, err := loadKey(EnvSessionKey, sessionKeySize, unwrap, ErrSessionKeyNotSet)
	if err != nil {
		if opts.Production {
			keyring.Close()
			return nil, err
		}
		sessionKey = generateEphemeral(sessionKeySize, EnvSessionKey, logger)
		keyring.ephemeral = true
	}
	if len(sessionKey) != sessionKeySize {
		keyring.Close()
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d",
			cryptoDomain.ErrInvalidKeySize, EnvSessionKey, sessionKeySize, len(sessionKey))
	}
	keyring.sessionKey = sessionKey

	sessionSalt, err := loadKey(EnvSessionSalt, minSessionSaltSize, unwrap, ErrSessionSaltNotSet)
	if err != nil {
		if opts.Production {
			keyring.Close()
			return nil, err
		}
		sessionSalt = generateEphemeral(minSessionSaltSize, EnvSessionSalt, logger)
		keyring.ephemeral = true
	}
	keyring.sessionSalt = sessionSalt

	return keyring, nil
}

// unwrapFunc decrypts KMS-wrapped key material. Nil means the value is used as-is.
type unwrapFunc func([]byte) ([]byte, error)

// loadKey reads, decodes, and optionally unwraps one key from the environment.
func loadKey(envName string, minSize int, unwrap unwrapFunc, notSetErr error) ([]byte, error) {
	raw := os.Getenv(envName)
	if raw == "" {
		return nil, notSetErr
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKeyBase64, envName, err)
	}

	if unwrap != nil {
		unwrapped, err := unwrap(key)
		cryptoDomain.Zero(key)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to unwrap %s", envName))
		}
		key = unwrapped
	}

	if len(key) < minSize {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("%w: %s must be at least %d bytes, got %d",
			ErrKeyTooShort, envName, minSize, len(key))
	}

	return key, nil
}

// generateEphemeral creates a random key and logs the operational consequence.
func generateEphemeral(size int, envName string, logger *slog.Logger) []byte {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failure means the platform RNG is broken; nothing
		// sensible can run without it.
		panic(fmt.Sprintf("failed to generate ephemeral key: %v", err))
	}

	if logger != nil {
		logger.Warn("key material not configured, generated ephemeral key; "+
			"all sessions and signatures become invalid on restart",
			slog.String("env", envName),
		)
	}

	return key
}
