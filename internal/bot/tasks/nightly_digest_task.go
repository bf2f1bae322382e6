package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derogab/summarygram/internal/bot/handlers"
	"github.com/derogab/summarygram/internal/store"
	"github.com/derogab/summarygram/internal/summary"
)

// newNightlyDigestTask creates the scheduled task that posts a conversation
// summary to every chat with recent history. A failing chat does not stop the
// others; failures are joined into the returned error.
func newNightlyDigestTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "nightly_digest")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled nightly digest task...")
		startTime := time.Now()

		chatIDs, err := deps.Store.ActiveChats(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active chats: %w", err)
		}

		var (
			errs []error
			sent int
		)
		for _, chatID := range chatIDs {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			if !deps.Config.IsChatAllowed(chatID) {
				log.DebugContext(ctx, "Skipping chat outside allow-list", "chat_id", chatID)
				continue
			}

			ok, err := digestChat(ctx, deps, chatID)
			if err != nil {
				log.WarnContext(ctx, "Nightly digest failed for chat", "chat_id", chatID, "error", err)
				errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
				continue
			}
			if ok {
				sent++
			}
		}

		duration := time.Since(startTime)
		if err := errors.Join(errs...); err != nil {
			log.ErrorContext(ctx, "Nightly digest finished with errors",
				"chats", len(chatIDs),
				"sent", sent,
				"failed", len(errs),
				"duration", duration)
			return err
		}

		log.InfoContext(ctx, "Scheduled nightly digest task completed successfully",
			"chats", len(chatIDs),
			"sent", sent,
			"duration", duration)
		return nil
	}
}

// digestChat summarizes and posts one chat. It reports whether a message was sent.
func digestChat(ctx context.Context, deps TaskDeps, chatID int64) (bool, error) {
	entries, err := deps.Store.List(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	reply, err := deps.Summarizer.Generate(ctx, summary.ConversationRequest(entries))
	if err != nil {
		return false, fmt.Errorf("failed to summarize: %w", err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		deps.Logger.WarnContext(ctx, "Summarizer returned an empty digest", "task", "nightly_digest", "chat_id", chatID)
		return false, nil
	}

	connectionID, _, err := deps.Store.GetValue(ctx, store.BusinessKey(chatID))
	if err != nil {
		return false, fmt.Errorf("failed to read business connection: %w", err)
	}

	if err := deps.Messenger.SendText(ctx, handlers.OutgoingMessage{
		ChatID:               chatID,
		Text:                 reply.Content,
		BusinessConnectionID: connectionID,
	}); err != nil {
		return false, fmt.Errorf("failed to send digest: %w", err)
	}
	return true, nil
}
