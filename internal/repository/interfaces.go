package repository

import (
	"context"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// UserRepository defines the interface for bot user persistence.
type UserRepository interface {
	// UpsertUser creates the user on first contact or refreshes the
	// username on later contacts
	UpsertUser(ctx context.Context, chatID int64, username string) (*domain.User, error)

	// TouchUser updates last_active and the subscription flag
	TouchUser(ctx context.Context, chatID int64, subscribed bool) error

	// ListSubscribed returns all currently subscribed users
	ListSubscribed(ctx context.Context) ([]*domain.User, error)

	// MarkUnsubscribed flags a user as unsubscribed
	MarkUnsubscribed(ctx context.Context, chatID int64) error

	// Close closes the repository connection
	Close() error
}

// AdminRepository defines the interface for admin account persistence.
type AdminRepository interface {
	// FindAdmin returns the admin account for a username, or nil when absent
	FindAdmin(ctx context.Context, username string) (*domain.AdminUser, error)

	// CreateAdmin stores a new admin account with an already-hashed password
	CreateAdmin(ctx context.Context, username, passwordHash string) (*domain.AdminUser, error)

	// Close closes the repository connection
	Close() error
}
