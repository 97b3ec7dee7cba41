// Package csrf implements the double-submit token pattern: a random token set
// as a cookie and echoed back by the client in a request header on mutating
// requests. Webhook endpoints are exempt; they authenticate with HMAC instead.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Cookie and header names for the token pair.
const (
	CookieName = "wishcraft_csrf"
	HeaderName = "X-CSRF-Token"
)

// tokenSize is the random token size in bytes before encoding.
const tokenSize = 32

// Issuer generates and validates double-submit token pairs.
// Stateless; tokens live for the life of the session cookie and single use is
// not enforced.
type Issuer struct{}

// NewIssuer creates a new CSRF token issuer.
func NewIssuer() *Issuer {
	return &Issuer{}
}

// Issue generates a new random token, base64url-encoded for cookie safety.
func (i *Issuer) Issue() (string, error) {
	raw := make([]byte, tokenSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Validate reports whether the cookie token and the echoed request token form
// a valid pair. Comparison is constant-time; absence of either side fails.
func (i *Issuer) Validate(cookieToken, requestToken string) bool {
	if cookieToken == "" || requestToken == "" {
		return false
	}
	return hmac.Equal([]byte(cookieToken), []byte(requestToken))
}
