// Package bot implements the bot lifecycle: it runs the Telegram update
// listener and the task scheduler side by side until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

// listener is the long-polling update loop of the Telegram client.
type listener interface {
	Start(ctx context.Context)
}

// Bot represents the main bot application and manages its components' lifecycle.
// It owns the history store and closes it once polling and the scheduler have stopped.
type Bot struct {
	logger    *slog.Logger
	tgBot     listener
	scheduler *Scheduler
	store     io.Closer
}

// NewBot creates a new instance of the bot from the Telegram client, the
// scheduler and the history store it takes ownership of.
func NewBot(logger *slog.Logger, tgBot *tgbot.Bot, scheduler *Scheduler, store io.Closer) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		tgBot:     tgBot,
		scheduler: scheduler,
		store:     store,
	}
}

// Run polls Telegram and runs the scheduled jobs until ctx is cancelled or
// either of them fails, then closes the history store. Cancellation is a
// clean shutdown and yields nil.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Polling Telegram for updates")
		b.tgBot.Start(gCtx)

		if gCtx.Err() == nil {
			return errors.New("telegram polling ended before shutdown")
		}
		b.logger.Info("Telegram polling stopped")
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Failed to stop scheduler", "error", err)
		}
		return nil
	})

	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	var closeErr error
	if err := b.store.Close(); err != nil {
		closeErr = fmt.Errorf("failed to close history store: %w", err)
	}

	if err := errors.Join(runErr, closeErr); err != nil {
		b.logger.Error("Summarygram stopped with errors", "error", err)
		return err
	}

	b.logger.Info("Summarygram stopped, history store closed")
	return nil
}
