// Package mocks provides mock implementations for testing registry consumers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	registryDomain "github.com/wishcraft/gatekeeper/internal/registry/domain"
)

// MockRepository is a mock implementation of the registry Repository.
type MockRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockRepository) Create(ctx context.Context, registry *registryDomain.Registry) error {
	args := m.Called(ctx, registry)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*registryDomain.Registry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.Registry), args.Error(1)
}

// ListByCustomer mocks the ListByCustomer method.
func (m *MockRepository) ListByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) ([]*registryDomain.Registry, error) {
	args := m.Called(ctx, shopDomain, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*registryDomain.Registry), args.Error(1)
}

// ExportByCustomer mocks the ExportByCustomer method.
func (m *MockRepository) ExportByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.CustomerExport, error) {
	args := m.Called(ctx, shopDomain, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.CustomerExport), args.Error(1)
}

// DeleteByCustomer mocks the DeleteByCustomer method.
func (m *MockRepository) DeleteByCustomer(
	ctx context.Context,
	shopDomain, customerID string,
) (*registryDomain.RedactionResult, error) {
	args := m.Called(ctx, shopDomain, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.RedactionResult), args.Error(1)
}

// AnonymizePurchasesByEmail mocks the AnonymizePurchasesByEmail method.
func (m *MockRepository) AnonymizePurchasesByEmail(
	ctx context.Context,
	shopDomain, email string,
) (int64, error) {
	args := m.Called(ctx, shopDomain, email)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteByShop mocks the DeleteByShop method.
func (m *MockRepository) DeleteByShop(
	ctx context.Context,
	shopDomain string,
) (*registryDomain.RedactionResult, error) {
	args := m.Called(ctx, shopDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.RedactionResult), args.Error(1)
}
