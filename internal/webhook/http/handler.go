package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/wishcraft/gatekeeper/internal/httputil"
	"github.com/wishcraft/gatekeeper/internal/metrics"
	webhookDomain "github.com/wishcraft/gatekeeper/internal/webhook/domain"
	"github.com/wishcraft/gatekeeper/internal/webhook/usecase"
)

// Handler handles privacy webhook deliveries. Routes using it must sit
// behind VerificationMiddleware; handlers trust the body has already been
// authenticated.
type Handler struct {
	usecase         *usecase.GDPRUsecase
	securityMetrics metrics.SecurityMetrics
	logger          *slog.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(
	uc *usecase.GDPRUsecase,
	securityMetrics metrics.SecurityMetrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{usecase: uc, securityMetrics: securityMetrics, logger: logger}
}

// requestID returns the platform's delivery ID, which is stable across
// retries of the same delivery, falling back to the per-request ID.
func requestID(c *gin.Context) string {
	if id := c.GetHeader(webhookDomain.HeaderWebhookID); id != "" {
		return id
	}
	return requestid.Get(c)
}

// DataRequest handles POST /webhooks/customers/data_request deliveries.
func (h *Handler) DataRequest(c *gin.Context) {
	var request dataRequestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	export, err := h.usecase.DataRequest(c.Request.Context(), requestID(c), &request.CustomersDataRequestPayload)
	if err != nil {
		h.securityMetrics.RecordRedaction(c.Request.Context(),
			string(webhookDomain.TopicCustomersDataRequest), "failed")
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.securityMetrics.RecordRedaction(c.Request.Context(),
		string(webhookDomain.TopicCustomersDataRequest), "completed")
	c.JSON(http.StatusOK, dataRequestResponse{Status: "completed", Export: export})
}

// CustomersRedact handles POST /webhooks/customers/redact deliveries.
func (h *Handler) CustomersRedact(c *gin.Context) {
	var request customersRedactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	result, err := h.usecase.CustomerRedact(c.Request.Context(), requestID(c), &request.CustomersRedactPayload)
	if err != nil {
		h.securityMetrics.RecordRedaction(c.Request.Context(),
			string(webhookDomain.TopicCustomersRedact), "failed")
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.securityMetrics.RecordRedaction(c.Request.Context(),
		string(webhookDomain.TopicCustomersRedact), "completed")
	c.JSON(http.StatusOK, makeRedactResponse(result))
}

// ShopRedact handles POST /webhooks/shop/redact deliveries.
func (h *Handler) ShopRedact(c *gin.Context) {
	var request shopRedactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	result, err := h.usecase.ShopRedact(c.Request.Context(), requestID(c), &request.ShopRedactPayload)
	if err != nil {
		h.securityMetrics.RecordRedaction(c.Request.Context(),
			string(webhookDomain.TopicShopRedact), "failed")
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.securityMetrics.RecordRedaction(c.Request.Context(),
		string(webhookDomain.TopicShopRedact), "completed")
	c.JSON(http.StatusOK, makeRedactResponse(result))
}
