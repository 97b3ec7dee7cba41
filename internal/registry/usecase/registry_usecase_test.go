package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wishcraft/gatekeeper/internal/errors"
	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
	"github.com/wishcraft/gatekeeper/internal/registry/mocks"
)

func TestRegistryUsecase_Create(t *testing.T) {
	repo := &mocks.MockRepository{}
	uc := NewRegistryUsecase(repo, slog.Default())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Registry")).Return(nil)

	registry, err := uc.Create(
		context.Background(),
		"example.myshopify.com", "C123", "customer@example.com", "Wedding", nil,
	)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, registry.ID)
	assert.Equal(t, "Wedding", registry.Title)
	repo.AssertExpectations(t)
}

func TestRegistryUsecase_Get_OwnershipMismatch(t *testing.T) {
	repo := &mocks.MockRepository{}
	uc := NewRegistryUsecase(repo, slog.Default())

	id := uuid.Must(uuid.NewV7())
	repo.On("GetByID", mock.Anything, id).Return(&registryDomain.Registry{
		ID:         id,
		ShopDomain: "other.myshopify.com",
		CustomerID: "C999",
	}, nil)

	// A registry in another shop must read as not found, not forbidden.
	registry, err := uc.Get(context.Background(), id, "example.myshopify.com", "C123")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, registry)
	repo.AssertExpectations(t)
}

func TestRegistryUsecase_Get(t *testing.T) {
	repo := &mocks.MockRepository{}
	uc := NewRegistryUsecase(repo, slog.Default())

	id := uuid.Must(uuid.NewV7())
	repo.On("GetByID", mock.Anything, id).Return(&registryDomain.Registry{
		ID:         id,
		ShopDomain: "example.myshopify.com",
		CustomerID: "C123",
		Title:      "Baby Shower",
	}, nil)

	registry, err := uc.Get(context.Background(), id, "example.myshopify.com", "C123")
	require.NoError(t, err)
	assert.Equal(t, "Baby Shower", registry.Title)
	repo.AssertExpectations(t)
}

func TestRegistryUsecase_List(t *testing.T) {
	repo := &mocks.MockRepository{}
	uc := NewRegistryUsecase(repo, slog.Default())

	repo.On("ListByCustomer", mock.Anything, "example.myshopify.com", "C123").
		Return([]*registryDomain.Registry{}, nil)

	registries, err := uc.List(context.Background(), "example.myshopify.com", "C123")
	require.NoError(t, err)
	assert.Empty(t, registries)
	repo.AssertExpectations(t)
}
