package http

import (
	"time"

	"github.com/jellydator/validation"

	sessionDomain "github.com/wishcraft/gatekeeper/internal/session/domain"
	appvalidation "github.com/wishcraft/gatekeeper/internal/validation"
)

// createSessionRequest is the login payload.
type createSessionRequest struct {
	CustomerID string   `json:"customer_id"`
	ShopDomain string   `json:"shop_domain"`
	Email      string   `json:"email"`
	Scopes     []string `json:"scopes"`
}

func (c createSessionRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CustomerID, validation.Required, appvalidation.NotBlank, validation.Length(1, 64)),
		validation.Field(&c.ShopDomain, validation.Required, appvalidation.ShopDomain),
		validation.Field(&c.Email, appvalidation.Email),
		validation.Field(&c.Scopes, validation.Length(0, 32)),
	)
}

// sessionResponse mirrors the payload without the sealed blob.
type sessionResponse struct {
	CustomerID string    `json:"customer_id"`
	ShopDomain string    `json:"shop_domain"`
	Email      string    `json:"email,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Scopes     []string  `json:"scopes"`
}

func makeSessionResponse(payload *sessionDomain.Payload) sessionResponse {
	return sessionResponse{
		CustomerID: payload.CustomerID,
		ShopDomain: payload.ShopDomain,
		Email:      payload.Email,
		IssuedAt:   payload.IssuedAt,
		ExpiresAt:  payload.ExpiresAt,
		Scopes:     payload.Scopes,
	}
}

// createSessionResponse is returned on login. The CSRF token is surfaced in
// the body as well as the cookie so single page clients can seed the header
// without reading cookies.
type createSessionResponse struct {
	Session   sessionResponse `json:"session"`
	CSRFToken string          `json:"csrf_token"`
}
