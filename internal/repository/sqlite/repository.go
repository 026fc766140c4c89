// Package sqlite implements the user and admin repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aliexpress-dz/pricebot/internal/domain"
	"github.com/aliexpress-dz/pricebot/internal/repository"
)

// Repository implements repository.UserRepository and
// repository.AdminRepository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(databasePath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// UpsertUser creates the user on first contact or refreshes the username.
func (r *Repository) UpsertUser(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, username, last_active, subscribed)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(chat_id) DO UPDATE SET username = excluded.username`,
		chatID, username, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.getUser(ctx, chatID)
}

// TouchUser updates last_active and the subscription flag.
func (r *Repository) TouchUser(ctx context.Context, chatID int64, subscribed bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_active = ?, subscribed = ? WHERE chat_id = ?`,
		time.Now().UTC(), subscribed, chatID)
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	return nil
}

// ListSubscribed returns all currently subscribed users.
func (r *Repository) ListSubscribed(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, username, last_active, subscribed
		FROM users WHERE subscribed = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.ChatID, &user.Username, &user.LastActive, &user.Subscribed); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// MarkUnsubscribed flags a user as unsubscribed.
func (r *Repository) MarkUnsubscribed(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET subscribed = 0 WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to mark user unsubscribed: %w", err)
	}
	return nil
}

// FindAdmin returns the admin account for a username, or nil when absent.
func (r *Repository) FindAdmin(ctx context.Context, username string) (*domain.AdminUser, error) {
	var admin domain.AdminUser
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM admin_users WHERE username = ?`,
		username).Scan(&admin.ID, &admin.Username, &admin.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &admin, nil
}

// CreateAdmin stores a new admin account with an already-hashed password.
func (r *Repository) CreateAdmin(ctx context.Context, username, passwordHash string) (*domain.AdminUser, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read admin id: %w", err)
	}

	return &domain.AdminUser{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

func (r *Repository) getUser(ctx context.Context, chatID int64) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, chat_id, username, last_active, subscribed
		FROM users WHERE chat_id = ?`,
		chatID).Scan(&user.ID, &user.ChatID, &user.Username, &user.LastActive, &user.Subscribed)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Close closes the repository connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ensure Repository implements the interfaces
var _ repository.UserRepository = (*Repository)(nil)
var _ repository.AdminRepository = (*Repository)(nil)
