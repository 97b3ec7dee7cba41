// Package service implements webhook request authentication.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verifier authenticates webhook deliveries by their body signature.
type Verifier interface {
	// Sign computes the base64 HMAC-SHA256 of a raw request body.
	Sign(body []byte) string

	// Verify reports whether the presented signature matches the raw body.
	// A missing or malformed signature is simply not verified; no error
	// detail leaks to the caller.
	Verify(body []byte, signature string) bool
}

type hmacVerifier struct {
	secret []byte
}

// NewVerifier creates an HMAC-SHA256 webhook verifier. The secret is copied;
// the caller keeps ownership of its slice.
func NewVerifier(secret []byte) Verifier {
	owned := make([]byte, len(secret))
	copy(owned, secret)
	return &hmacVerifier{secret: owned}
}

// Sign computes the base64 HMAC-SHA256 of the body.
func (v *hmacVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares the presented signature against the computed one in
// constant time. The signature must cover the raw body bytes exactly as
// received; any reserialization before verification would change them.
func (v *hmacVerifier) Verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	presented, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	return hmac.Equal(presented, expected)
}
