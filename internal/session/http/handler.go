package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wishcraft/gatekeeper/internal/csrf"
	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
	sessionDomain "github.com/wishcraft/gatekeeper/internal/session/domain"
	sessionService "github.com/wishcraft/gatekeeper/internal/session/service"
)

// HandlerConfig carries the cookie parameters for the session handler.
type HandlerConfig struct {
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
}

// Handler handles session HTTP requests.
type Handler struct {
	sealer sessionService.Sealer
	issuer *csrf.Issuer
	cfg    HandlerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new session handler.
func NewHandler(
	sealer sessionService.Sealer,
	issuer *csrf.Issuer,
	cfg HandlerConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sealer: sealer,
		issuer: issuer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Create handles POST /v1/sessions requests. It seals a new session payload
// into the session cookie and issues a fresh CSRF token pair.
func (h *Handler) Create(c *gin.Context) {
	var request createSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	now := h.now().UTC()
	payload := &sessionDomain.Payload{
		CustomerID: request.CustomerID,
		ShopDomain: request.ShopDomain,
		Email:      request.Email,
		IssuedAt:   now,
		ExpiresAt:  now.Add(h.cfg.TTL),
		Scopes:     request.Scopes,
	}

	blob, err := h.sealer.Seal(payload)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	csrfToken, err := h.issuer.Issue()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	maxAge := int(h.cfg.TTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	// Session cookie is HttpOnly; the CSRF cookie must stay readable by the
	// client so it can echo the token in the request header.
	c.SetCookie(h.cfg.CookieName, blob, maxAge, "/", "", h.cfg.CookieSecure, true)
	c.SetCookie(csrf.CookieName, csrfToken, maxAge, "/", "", h.cfg.CookieSecure, false)

	c.JSON(http.StatusCreated, createSessionResponse{
		Session:   makeSessionResponse(payload),
		CSRFToken: csrfToken,
	})
}

// Show handles GET /v1/sessions/current requests.
func (h *Handler) Show(c *gin.Context) {
	payload, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, makeSessionResponse(payload))
}

// Destroy handles DELETE /v1/sessions/current requests. Clearing the cookies
// is all a logout needs; sealed blobs carry their own expiry and there is no
// server-side session store to invalidate.
func (h *Handler) Destroy(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.SetCookie(csrf.CookieName, "", -1, "/", "", h.cfg.CookieSecure, false)
	c.Status(http.StatusNoContent)
}
