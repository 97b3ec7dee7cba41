package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	sessionService "github.com/wishcraft/gatekeeper/internal/session/service"
)

// SessionMiddleware opens the session cookie and stores the payload in the
// request context.
//
// A missing cookie leaves the request unauthenticated and continues; an
// invalid or expired blob is treated identically (the cookie is cleared so the
// client stops presenting it). Rejection of unauthenticated requests is the
// job of RequireSessionMiddleware on the routes that need it.
func SessionMiddleware(
	sealer sessionService.Sealer,
	cookieName string,
	cookieSecure bool,
	securityMetrics metrics.SecurityMetrics,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		blob, err := c.Cookie(cookieName)
		if err != nil || blob == "" {
			c.Next()
			return
		}

		payload, err := sealer.Open(blob)
		if err != nil {
			// Invalid, tampered, and expired all land here; same treatment.
			logger.Debug("session cookie rejected")
			securityMetrics.RecordSessionRejection(c.Request.Context())
			// The clearing cookie must match the issuance attributes or the
			// browser keeps presenting the rejected blob.
			c.SetCookie(cookieName, "", -1, "/", "", cookieSecure, true)
			c.Next()
			return
		}

		ctx := WithSession(c.Request.Context(), payload)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSessionMiddleware rejects requests without an authenticated session.
// MUST be used after SessionMiddleware.
func RequireSessionMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c.Request.Context()); !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		c.Next()
	}
}
