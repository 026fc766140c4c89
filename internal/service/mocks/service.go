package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// Messenger is a mock implementation of service.Messenger
type Messenger struct {
	mock.Mock
}

// SendMessage sends a plain text message
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

// SendPhoto sends an image by URL with a caption
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	args := m.Called(ctx, chatID, photoURL, caption)
	return args.Error(0)
}

// LinkResolver is a mock implementation of service.LinkResolver
type LinkResolver struct {
	mock.Mock
}

// Resolve extracts a product identifier from free-form message text
func (m *LinkResolver) Resolve(ctx context.Context, freeText string) (*domain.ResolvedLink, error) {
	args := m.Called(ctx, freeText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedLink), args.Error(1)
}

// Analyzer is a mock implementation of service.Analyzer
type Analyzer struct {
	mock.Mock
}

// HandleStart greets a user on the /start event
func (m *Analyzer) HandleStart(ctx context.Context, chatID int64, username string) error {
	args := m.Called(ctx, chatID, username)
	return args.Error(0)
}

// HandleText runs the full resolve/fetch/price/reply pipeline
func (m *Analyzer) HandleText(ctx context.Context, chatID int64, username, text string) error {
	args := m.Called(ctx, chatID, username, text)
	return args.Error(0)
}

// Broadcaster is a mock implementation of service.Broadcaster
type Broadcaster struct {
	mock.Mock
}

// Broadcast sends an announcement to all subscribed users
func (m *Broadcaster) Broadcast(ctx context.Context, text string) (*domain.BroadcastReport, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BroadcastReport), args.Error(1)
}
