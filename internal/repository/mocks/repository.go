package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// UserRepository is a mock implementation of repository.UserRepository
type UserRepository struct {
	mock.Mock
}

// UpsertUser creates the user on first contact or refreshes the username
func (m *UserRepository) UpsertUser(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	args := m.Called(ctx, chatID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// TouchUser updates last_active and the subscription flag
func (m *UserRepository) TouchUser(ctx context.Context, chatID int64, subscribed bool) error {
	args := m.Called(ctx, chatID, subscribed)
	return args.Error(0)
}

// ListSubscribed returns all currently subscribed users
func (m *UserRepository) ListSubscribed(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// MarkUnsubscribed flags a user as unsubscribed
func (m *UserRepository) MarkUnsubscribed(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// Close closes the repository connection
func (m *UserRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// AdminRepository is a mock implementation of repository.AdminRepository
type AdminRepository struct {
	mock.Mock
}

// FindAdmin returns the admin account for a username, or nil when absent
func (m *AdminRepository) FindAdmin(ctx context.Context, username string) (*domain.AdminUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminUser), args.Error(1)
}

// CreateAdmin stores a new admin account with an already-hashed password
func (m *AdminRepository) CreateAdmin(ctx context.Context, username, passwordHash string) (*domain.AdminUser, error) {
	args := m.Called(ctx, username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminUser), args.Error(1)
}

// Close closes the repository connection
func (m *AdminRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
