package http

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	"github.com/wishcraft/gatekeeper/internal/ratelimit"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
)

// KeyFunc extracts the rate-limit key from a request.
type KeyFunc func(c *gin.Context) string

// KeyByClientIP keys requests by caller IP. Used for browser-facing classes.
func KeyByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByShopDomain keys requests by the shop domain header, falling back to
// the caller IP when absent. One noisy shop cannot starve deliveries for the
// others.
func KeyByShopDomain(c *gin.Context) string {
	if shop := c.GetHeader(webhookDomain.HeaderShopDomain); shop != "" {
		return shop
	}
	return c.ClientIP()
}

// RateLimitMiddleware enforces the fixed-window ceiling for one endpoint
// class. Allowed responses carry X-RateLimit-Limit and X-RateLimit-Remaining;
// denials add Retry-After (seconds until the window resets, rounded up) and
// return 429 without touching any handler.
//
// A nil limiter disables enforcement entirely.
func RateLimitMiddleware(
	limiter ratelimit.Limiter,
	class ratelimit.Class,
	keyFunc KeyFunc,
	securityMetrics metrics.SecurityMetrics,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		decision := limiter.Allow(class, keyFunc(c))

		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}

		securityMetrics.RecordRateLimitDecision(c.Request.Context(), string(class), decision.Allowed)

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			httputil.HandleErrorGin(c, apperrors.ErrRateLimited, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
