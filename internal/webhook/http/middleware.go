// Package http provides webhook verification middleware and GDPR handlers.
package http

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
	webhookService "github.com/wishcraft/gatekeeper/internal/webhook/service"
)

// maxBodyBytes caps webhook bodies. Privacy payloads are small; anything
// bigger is not a legitimate delivery.
const maxBodyBytes = 1 << 20

// VerificationMiddleware authenticates webhook deliveries before any payload
// parsing. The raw body bytes are captured exactly as received, verified
// against the signature header, and then restored for downstream handlers to
// bind; parsing first would reserialize the body and break the signature.
//
// Every failure mode (missing header, malformed base64, wrong signature,
// unreadable body) produces the same generic 401.
func VerificationMiddleware(
	verifier webhookService.Verifier,
	securityMetrics metrics.SecurityMetrics,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.GetHeader(webhookDomain.HeaderTopic)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil || len(body) > maxBodyBytes {
			securityMetrics.RecordWebhookVerification(c.Request.Context(), topic, "rejected")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		signature := c.GetHeader(webhookDomain.HeaderSignature)
		if !verifier.Verify(body, signature) {
			securityMetrics.RecordWebhookVerification(c.Request.Context(), topic, "rejected")
			logger.Warn("webhook signature rejected",
				slog.String("topic", topic),
				slog.String("shop_domain", c.GetHeader(webhookDomain.HeaderShopDomain)),
			)
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		securityMetrics.RecordWebhookVerification(c.Request.Context(), topic, "verified")
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
