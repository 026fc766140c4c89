package telegram

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aliexpress-dz/pricebot/internal/service"
)

const (
	pollTimeout  = 30 * time.Second
	errorBackoff = 3 * time.Second
)

// Poller drives the bot: it long-polls for updates and dispatches each
// message to the analyzer.
type Poller struct {
	client   *Client
	analyzer service.Analyzer
	logger   *zap.Logger
	offset   int64
}

// NewPoller creates a new update poller
func NewPoller(client *Client, analyzer service.Analyzer, logger *zap.Logger) *Poller {
	return &Poller{
		client:   client,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("starting update poller")
	for {
		updates, err := p.client.GetUpdates(ctx, p.offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("failed to fetch updates", zap.Error(err))
			select {
			case <-time.After(errorBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go p.dispatch(ctx, *update.Message)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while handling update",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Any("panic", r))
		}
	}()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/start") {
		if err := p.analyzer.HandleStart(ctx, msg.Chat.ID, msg.From.Username); err != nil {
			p.logger.Error("failed to handle start command",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Error(err))
		}
		return
	}

	if err := p.analyzer.HandleText(ctx, msg.Chat.ID, msg.From.Username, text); err != nil {
		p.logger.Error("failed to handle message",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	}
}
