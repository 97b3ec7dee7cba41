package commands

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/wishcraft/gatekeeper/internal/keyring"
)

// Generated key sizes in bytes.
const (
	generatedSecretSize = 32
	generatedKeySize    = 32
	generatedSaltSize   = 16
)

// RunGenerateKeys generates fresh key material and prints it in a form ready
// for the environment: a webhook signing secret, a session encryption key,
// and an HKDF salt, all standard base64.
//
// The values are printed once and never stored; treat the output as secret.
func RunGenerateKeys(format string, io IOTuple) error {
	signingSecret, err := randomBase64(generatedSecretSize)
	if err != nil {
		return fmt.Errorf("failed to generate signing secret: %w", err)
	}

	sessionKey, err := randomBase64(generatedKeySize)
	if err != nil {
		return fmt.Errorf("failed to generate session key: %w", err)
	}

	sessionSalt, err := randomBase64(generatedSaltSize)
	if err != nil {
		return fmt.Errorf("failed to generate session salt: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			keyring.EnvSigningSecret: signingSecret,
			keyring.EnvSessionKey:    sessionKey,
			keyring.EnvSessionSalt:   sessionSalt,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(io.Writer, string(jsonBytes))
		return nil
	}

	fmt.Fprintln(io.Writer, "Generated key material (store securely, shown only once):")
	fmt.Fprintln(io.Writer, "")
	fmt.Fprintf(io.Writer, "export %s=%q\n", keyring.EnvSigningSecret, signingSecret)
	fmt.Fprintf(io.Writer, "export %s=%q\n", keyring.EnvSessionKey, sessionKey)
	fmt.Fprintf(io.Writer, "export %s=%q\n", keyring.EnvSessionSalt, sessionSalt)

	return nil
}

// randomBase64 returns size random bytes as standard base64.
func randomBase64(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
