// Package service sequences the analysis pipeline and the broadcast flow,
// converting every failure into a user-facing reply.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/domain"
	"github.com/aliexpress-dz/pricebot/internal/metrics"
	"github.com/aliexpress-dz/pricebot/internal/pricing"
	"github.com/aliexpress-dz/pricebot/internal/repository"
	"github.com/aliexpress-dz/pricebot/internal/resolver"
)

// AnalyzerConfig holds the locale and affiliate settings for analyses.
type AnalyzerConfig struct {
	Currency    string
	Language    string
	Country     string
	AffiliateID string
}

// analyzer implements Analyzer
type analyzer struct {
	resolver  LinkResolver
	fetcher   ProductFetcher
	messenger Messenger
	users     repository.UserRepository
	logger    *zap.Logger
	cfg       AnalyzerConfig
}

// NewAnalyzer creates the analysis orchestrator.
func NewAnalyzer(linkResolver LinkResolver, fetcher ProductFetcher, messenger Messenger, users repository.UserRepository, logger *zap.Logger, cfg AnalyzerConfig) Analyzer {
	return &analyzer{
		resolver:  linkResolver,
		fetcher:   fetcher,
		messenger: messenger,
		users:     users,
		logger:    logger,
		cfg:       cfg,
	}
}

// HandleStart registers the user and sends the one-time welcome notice.
func (a *analyzer) HandleStart(ctx context.Context, chatID int64, username string) error {
	if _, err := a.users.UpsertUser(ctx, chatID, username); err != nil {
		a.logger.Error("failed to register user", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return a.messenger.SendMessage(ctx, chatID, msgWelcome)
}

// HandleText runs resolve → fetch → price → format → deliver for one inbound
// message. Every failure ends in a reply; nothing propagates as fatal.
func (a *analyzer) HandleText(ctx context.Context, chatID int64, username, text string) error {
	if _, err := a.users.UpsertUser(ctx, chatID, username); err != nil {
		a.logger.Error("failed to upsert user", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if err := a.users.TouchUser(ctx, chatID, true); err != nil {
		a.logger.Error("failed to touch user", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	link, err := a.resolver.Resolve(ctx, text)
	if err != nil {
		metrics.Analyses.WithLabelValues("unsupported_link").Inc()
		if errors.Is(err, resolver.ErrRedirectFailed) {
			a.logger.Error("redirect resolution failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		} else {
			a.logger.Debug("unsupported link",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
		return a.messenger.SendMessage(ctx, chatID, msgUnsupportedLink)
	}

	if err := a.messenger.SendMessage(ctx, chatID, msgProcessing); err != nil {
		a.logger.Warn("failed to send processing notice",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	record, err := a.fetcher.FetchProduct(ctx, link.ProductID, a.cfg.Currency, a.cfg.Language, a.cfg.Country)
	if err != nil {
		if domain.IsRateLimited(err) {
			metrics.Analyses.WithLabelValues("rate_limited").Inc()
			a.logger.Warn("provider rate limited",
				zap.Int64("chat_id", chatID),
				zap.String("product_id", link.ProductID))
			return a.messenger.SendMessage(ctx, chatID, msgRateLimited)
		}

		metrics.Analyses.WithLabelValues("provider_failed").Inc()
		a.logger.Error("provider fetch failed",
			zap.Int64("chat_id", chatID),
			zap.String("product_id", link.ProductID),
			zap.Error(err))
		return a.messenger.SendMessage(ctx, chatID, fmt.Sprintf(msgAnalysisFailed, err))
	}

	breakdown := pricing.Breakdown(record)
	caption := buildCaption(link.ProductID, record, breakdown, purchaseLink(record, a.cfg.AffiliateID))

	if err := a.deliver(ctx, chatID, record, caption); err != nil {
		if errors.Is(err, domain.ErrRecipientUnreachable) {
			if markErr := a.users.MarkUnsubscribed(ctx, chatID); markErr != nil {
				a.logger.Error("failed to mark user unsubscribed",
					zap.Int64("chat_id", chatID),
					zap.Error(markErr))
			}
		}
		metrics.Analyses.WithLabelValues("delivery_failed").Inc()
		return err
	}

	metrics.Analyses.WithLabelValues("delivered").Inc()
	return nil
}

// deliver sends the analysis as an image with caption when the product has
// an image, falling back to plain text. Caption overflow goes out as a
// follow-up message.
func (a *analyzer) deliver(ctx context.Context, chatID int64, record *domain.ProductRecord, caption string) error {
	if record.MainImageURL == "" {
		return a.messenger.SendMessage(ctx, chatID, caption)
	}

	head, overflow := splitCaption(caption, captionSafeLimit)
	if err := a.messenger.SendPhoto(ctx, chatID, record.MainImageURL, head); err != nil {
		a.logger.Warn("photo delivery failed, falling back to text",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return a.messenger.SendMessage(ctx, chatID, caption)
	}

	if overflow != "" {
		return a.messenger.SendMessage(ctx, chatID, overflow)
	}
	return nil
}

// Ensure analyzer implements Analyzer interface
var _ Analyzer = (*analyzer)(nil)
