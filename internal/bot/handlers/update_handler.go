package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/logger"
	"github.com/derogab/summarygram/internal/store"
)

// NewUpdateHandler returns the default handler: business connection updates
// maintain the stored binding, /start and /help that reached it (business
// messages) get their reply and every other message goes through the Router.
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	allowed := AllowedChatsOnly(deps)
	return updateHandler{
		deps:   deps,
		router: NewRouter(deps),
		commands: map[string]bot.HandlerFunc{
			CommandStart: allowed(NewStartHandler(deps)),
			CommandHelp:  allowed(NewHelpHandler(deps)),
		},
	}.Handle
}

type updateHandler struct {
	deps     HandlerDeps
	router   *Router
	commands map[string]bot.HandlerFunc
}

func (h updateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "update")

	if update.BusinessConnection != nil {
		h.handleBusinessConnection(ctx, update.BusinessConnection)
		return
	}

	msg := logger.EffectiveMessage(update)
	if msg == nil {
		log.DebugContext(ctx, "Ignoring update without message", "update_id", update.ID, "update_type", logger.UpdateType(update))
		return
	}

	if name, ok := commandFor(h.deps.Config, msg.Text); ok {
		if reply, found := h.commands[name]; found {
			reply(ctx, b, update)
			return
		}
	}

	if err := h.router.Route(ctx, EventFromMessage(msg)); err != nil {
		log.ErrorContext(ctx, "Failed to handle message",
			"update_id", update.ID,
			"chat_id", msg.Chat.ID,
			"message_id", msg.ID,
			"error", err)
	}
}

func (h updateHandler) handleBusinessConnection(ctx context.Context, conn *models.BusinessConnection) {
	log := h.deps.Logger.With("handler", "business_connection", "chat_id", conn.UserChatID)
	key := store.BusinessKey(conn.UserChatID)

	if !conn.IsEnabled {
		if err := h.deps.Store.DeleteValue(ctx, key); err != nil {
			log.ErrorContext(ctx, "Failed to remove business connection", "error", err)
			return
		}
		log.InfoContext(ctx, "Business connection disabled")
		return
	}

	if err := h.deps.Store.SetValue(ctx, key, conn.ID); err != nil {
		log.ErrorContext(ctx, "Failed to store business connection", "error", err)
		return
	}
	log.InfoContext(ctx, "Business connection stored", "business_connection_id", conn.ID)
}
