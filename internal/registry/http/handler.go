package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	"github.com/wishcraft/gatekeeper/internal/httputil"
	"github.com/wishcraft/gatekeeper/internal/registry/usecase"
	sessionHTTP "github.com/wishcraft/gatekeeper/internal/session/http"
)

// Handler handles registry HTTP requests. All routes require an
// authenticated session; the session payload scopes every operation.
type Handler struct {
	usecase *usecase.RegistryUsecase
	logger  *slog.Logger
}

// NewHandler creates a new registry handler.
func NewHandler(uc *usecase.RegistryUsecase, logger *slog.Logger) *Handler {
	return &Handler{usecase: uc, logger: logger}
}

// Create handles POST /v1/registries requests.
func (h *Handler) Create(c *gin.Context) {
	payload, ok := sessionHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request createRegistryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	registry, err := h.usecase.Create(
		c.Request.Context(),
		payload.ShopDomain,
		payload.CustomerID,
		payload.Email,
		request.Title,
		request.EventDate,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, makeRegistryResponse(registry))
}

// Get handles GET /v1/registries/:id requests.
func (h *Handler) Get(c *gin.Context) {
	payload, ok := sessionHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrNotFound, h.logger)
		return
	}

	registry, err := h.usecase.Get(c.Request.Context(), id, payload.ShopDomain, payload.CustomerID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, makeRegistryResponse(registry))
}

// List handles GET /v1/registries requests.
func (h *Handler) List(c *gin.Context) {
	payload, ok := sessionHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	registries, err := h.usecase.List(c.Request.Context(), payload.ShopDomain, payload.CustomerID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := listRegistriesResponse{Registries: make([]registryResponse, 0, len(registries))}
	for _, registry := range registries {
		response.Registries = append(response.Registries, makeRegistryResponse(registry))
	}

	c.JSON(http.StatusOK, response)
}
