// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/logger"
)

// AllowedChatsOnly creates a middleware that silently drops updates from chats
// outside the configured allow-list.
func AllowedChatsOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := logger.EffectiveMessage(update)
			if msg == nil {
				next(ctx, bot, update)
				return
			}

			if !deps.Config.IsChatAllowed(msg.Chat.ID) {
				deps.Logger.DebugContext(ctx, "Ignoring command from chat outside allow-list",
					"middleware", "AllowedChatsOnly",
					"chat_id", msg.Chat.ID)
				return
			}

			next(ctx, bot, update)
		}
	}
}
