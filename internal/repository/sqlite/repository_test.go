package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "pricebot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_UpsertUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	user, err := repo.UpsertUser(ctx, 1001, "farid")
	require.NoError(t, err)
	assert.EqualValues(t, 1001, user.ChatID)
	assert.Equal(t, "farid", user.Username)
	assert.True(t, user.Subscribed)

	// A second upsert for the same chat keeps one row and refreshes the
	// username.
	user, err = repo.UpsertUser(ctx, 1001, "farid_new")
	require.NoError(t, err)
	assert.Equal(t, "farid_new", user.Username)

	users, err := repo.ListSubscribed(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRepository_TouchUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first, err := repo.UpsertUser(ctx, 1001, "farid")
	require.NoError(t, err)

	require.NoError(t, repo.TouchUser(ctx, 1001, true))

	touched, err := repo.getUser(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, touched.LastActive.Before(first.LastActive))
	assert.True(t, touched.Subscribed)
}

func TestRepository_SubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for chatID := int64(1); chatID <= 3; chatID++ {
		_, err := repo.UpsertUser(ctx, chatID, "")
		require.NoError(t, err)
	}

	require.NoError(t, repo.MarkUnsubscribed(ctx, 2))

	users, err := repo.ListSubscribed(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.EqualValues(t, 1, users[0].ChatID)
	assert.EqualValues(t, 3, users[1].ChatID)

	// Touching a user with subscribed=true re-subscribes them.
	require.NoError(t, repo.TouchUser(ctx, 2, true))
	users, err = repo.ListSubscribed(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestRepository_Admins(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	missing, err := repo.FindAdmin(ctx, "operator")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.CreateAdmin(ctx, "operator", "$2a$12$fakehash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindAdmin(ctx, "operator")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "operator", found.Username)
	assert.Equal(t, "$2a$12$fakehash", found.PasswordHash)

	// Duplicate usernames are rejected by the unique constraint.
	_, err = repo.CreateAdmin(ctx, "operator", "$2a$12$otherhash")
	assert.Error(t, err)
}

func TestRepository_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pricebot.db")

	repo, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening the same database must not re-apply migrations.
	repo, err = New(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}
