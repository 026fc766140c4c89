package service

import (
	"context"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

// Messenger delivers outbound messages to the chat platform.
type Messenger interface {
	// SendMessage sends a plain text message
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendPhoto sends an image by URL with a caption
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
}

// LinkResolver extracts a product identifier from free-form message text.
type LinkResolver interface {
	Resolve(ctx context.Context, freeText string) (*domain.ResolvedLink, error)
}

// ProductFetcher fetches normalized product records from the provider.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, productID, currency, language, country string) (*domain.ProductRecord, error)
}

// Analyzer runs the analysis pipeline for inbound bot events.
type Analyzer interface {
	// HandleStart greets a user on the /start event
	HandleStart(ctx context.Context, chatID int64, username string) error

	// HandleText runs the full resolve/fetch/price/reply pipeline
	HandleText(ctx context.Context, chatID int64, username, text string) error
}

// Broadcaster sends an announcement to all subscribed users.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (*domain.BroadcastReport, error)
}
