package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wishcraft/gatekeeper/internal/csrf"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
)

// CSRFMiddleware enforces the double-submit token pair on mutating requests.
// Safe methods pass through; webhook routes never use this middleware since
// they authenticate with HMAC signatures instead of cookies.
func CSRFMiddleware(issuer *csrf.Issuer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(csrf.CookieName)
		if err != nil {
			cookieToken = ""
		}
		headerToken := c.GetHeader(csrf.HeaderName)

		if !issuer.Validate(cookieToken, headerToken) {
			logger.Debug("csrf token mismatch",
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
			)
			httputil.HandleErrorGin(c, apperrors.ErrCSRFMismatch, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
