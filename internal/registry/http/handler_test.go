package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	"github.com/wishcraft/gatekeeper/internal/registry/mocks"
	"github.com/wishcraft/gatekeeper/internal/registry/usecase"
	sessionDomain "github.com/wishcraft/gatekeeper/internal/session/domain"
	sessionHTTP "github.com/wishcraft/gatekeeper/internal/session/http"
)

func setupRouter(t *testing.T, repo *mocks.MockRepository, authenticated bool) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	handler := NewHandler(usecase.NewRegistryUsecase(repo, slog.Default()), slog.Default())

	router := gin.New()
	if authenticated {
		router.Use(func(c *gin.Context) {
			now := time.Now().UTC()
			ctx := sessionHTTP.WithSession(c.Request.Context(), &sessionDomain.Payload{
				CustomerID: "C123",
				ShopDomain: "example.myshopify.com",
				Email:      "customer@example.com",
				IssuedAt:   now,
				ExpiresAt:  now.Add(time.Hour),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
	router.POST("/v1/registries", handler.Create)
	router.GET("/v1/registries", handler.List)
	router.GET("/v1/registries/:id", handler.Get)
	return router
}

func TestHandler_Create(t *testing.T) {
	repo := &mocks.MockRepository{}
	router := setupRouter(t, repo, true)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(registry *registryDomain.Registry) bool {
		return registry.ShopDomain == "example.myshopify.com" &&
			registry.CustomerID == "C123" &&
			registry.Title == "Wedding"
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/registries", strings.NewReader(`{"title":"Wedding"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response registryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Wedding", response.Title)
	assert.NotEmpty(t, response.ID)
	repo.AssertExpectations(t)
}

func TestHandler_Create_Unauthenticated(t *testing.T) {
	repo := &mocks.MockRepository{}
	router := setupRouter(t, repo, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/registries", strings.NewReader(`{"title":"Wedding"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandler_Create_ValidationError(t *testing.T) {
	repo := &mocks.MockRepository{}
	router := setupRouter(t, repo, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/registries", strings.NewReader(`{"title":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Get_NotFound(t *testing.T) {
	repo := &mocks.MockRepository{}
	router := setupRouter(t, repo, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/registries/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An unparseable ID reads the same as an unknown one.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandler_List(t *testing.T) {
	repo := &mocks.MockRepository{}
	router := setupRouter(t, repo, true)

	registry := registryDomain.NewRegistry(
		"example.myshopify.com", "C123", "customer@example.com", "Wedding", nil,
	)
	repo.On("ListByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return([]*registryDomain.Registry{registry}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/registries", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response listRegistriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Registries, 1)
	assert.Equal(t, registry.ID.String(), response.Registries[0].ID)
	repo.AssertExpectations(t)
}
