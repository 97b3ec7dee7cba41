package domain

import (
	"github.com/wishcraft/gatekeeper/internal/errors"
)

// Session error definitions.
var (
	// ErrSessionInvalid covers every way a session blob can fail: bad base64,
	// truncated blob, failed authentication tag, unparseable payload, expiry.
	// Callers treat all of them as "no session" and force re-authentication;
	// the distinction is never surfaced.
	ErrSessionInvalid = errors.ErrSessionInvalid
)
