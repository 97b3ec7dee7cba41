// Package mocks provides mock implementations for testing audit consumers.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/wishcraft/gatekeeper/internal/audit/domain"
)

// MockRepository is a mock implementation of the audit Repository.
type MockRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockRepository) Create(ctx context.Context, record *auditDomain.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockRepository) List(ctx context.Context, offset, limit int) ([]*auditDomain.Record, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Record), args.Error(1)
}

// DeleteOlderThan mocks the DeleteOlderThan method.
func (m *MockRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
