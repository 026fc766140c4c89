package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/domain"
	"github.com/aliexpress-dz/pricebot/internal/metrics"
	"github.com/aliexpress-dz/pricebot/internal/repository"
)

// BroadcasterConfig controls broadcast batching.
type BroadcasterConfig struct {
	// BatchSize is the number of recipients sent to concurrently per batch
	BatchSize int

	// BatchDelay is the pause between batches, protecting against outbound
	// flood limits
	BatchDelay time.Duration
}

// broadcaster implements Broadcaster
type broadcaster struct {
	users     repository.UserRepository
	messenger Messenger
	logger    *zap.Logger
	cfg       BroadcasterConfig

	// sleep is swappable so batching tests need no real waiting.
	sleep func(ctx context.Context, d time.Duration)
}

// NewBroadcaster creates a batching broadcaster.
func NewBroadcaster(users repository.UserRepository, messenger Messenger, logger *zap.Logger, cfg BroadcasterConfig) Broadcaster {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	return &broadcaster{
		users:     users,
		messenger: messenger,
		logger:    logger,
		cfg:       cfg,
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		},
	}
}

// Broadcast sends text to every subscribed user in fixed-size batches.
// Per-recipient failures never abort the run; unreachable recipients are
// marked unsubscribed.
func (b *broadcaster) Broadcast(ctx context.Context, text string) (*domain.BroadcastReport, error) {
	users, err := b.users.ListSubscribed(ctx)
	if err != nil {
		return nil, err
	}

	var sent, failed int64

	for start := 0; start < len(users); start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > len(users) {
			end = len(users)
		}

		var wg sync.WaitGroup
		for _, user := range users[start:end] {
			wg.Add(1)
			go func(user *domain.User) {
				defer wg.Done()
				if err := b.messenger.SendMessage(ctx, user.ChatID, text); err != nil {
					atomic.AddInt64(&failed, 1)
					metrics.BroadcastDeliveries.WithLabelValues("failed").Inc()
					b.logger.Warn("broadcast delivery failed",
						zap.Int64("chat_id", user.ChatID),
						zap.Error(err))
					if errors.Is(err, domain.ErrRecipientUnreachable) {
						if err := b.users.MarkUnsubscribed(ctx, user.ChatID); err != nil {
							b.logger.Error("failed to unsubscribe unreachable user",
								zap.Int64("chat_id", user.ChatID),
								zap.Error(err))
						}
					}
					return
				}
				atomic.AddInt64(&sent, 1)
				metrics.BroadcastDeliveries.WithLabelValues("sent").Inc()
			}(user)
		}
		wg.Wait()

		if end < len(users) && b.cfg.BatchDelay > 0 {
			b.sleep(ctx, b.cfg.BatchDelay)
		}
	}

	return &domain.BroadcastReport{
		Total:  len(users),
		Sent:   int(atomic.LoadInt64(&sent)),
		Failed: int(atomic.LoadInt64(&failed)),
	}, nil
}

// Ensure broadcaster implements Broadcaster interface
var _ Broadcaster = (*broadcaster)(nil)
