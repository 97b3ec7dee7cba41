// Package domain defines the session payload sealed into the customer cookie.
package domain

import (
	"time"
)

// Payload is the authenticated identity carried by the session cookie.
// Serialized to JSON and sealed with an AEAD; the ciphertext blob is what
// leaves the process, never the payload itself.
type Payload struct {
	// CustomerID is the platform customer identifier.
	CustomerID string `json:"customer_id"`
	// ShopDomain is the shop the customer authenticated against.
	ShopDomain string `json:"shop_domain"`
	// Email is the customer's email at authentication time.
	Email string `json:"email,omitempty"`
	// IssuedAt is the UTC time the session was created.
	IssuedAt time.Time `json:"issued_at"`
	// ExpiresAt is the UTC time after which the session is invalid.
	ExpiresAt time.Time `json:"expires_at"`
	// Scopes lists the capabilities granted to this session.
	Scopes []string `json:"scopes,omitempty"`
}

// Expired reports whether the payload is past its expiry at the given time.
func (p *Payload) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// HasScope reports whether the session carries the named scope.
func (p *Payload) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
