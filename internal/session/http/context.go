// Package http provides session middleware and handlers for customer
// authentication.
package http

import (
	"context"

	sessionDomain "github.com/wishcraft/gatekeeper/internal/session/domain"
)

// sessionKey is a context key type for storing the opened session payload.
type sessionKey struct{}

// WithSession returns a context carrying the opened session payload.
func WithSession(ctx context.Context, payload *sessionDomain.Payload) context.Context {
	return context.WithValue(ctx, sessionKey{}, payload)
}

// GetSession retrieves the session payload from context.
// Returns false if no authenticated session is present.
func GetSession(ctx context.Context) (*sessionDomain.Payload, bool) {
	payload, ok := ctx.Value(sessionKey{}).(*sessionDomain.Payload)
	return payload, ok && payload != nil
}
