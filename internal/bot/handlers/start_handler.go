package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/logger"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return textReplyHandler{deps: deps, name: "start", text: deps.Config.Messages.Welcome}.Handle
}

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return textReplyHandler{deps: deps, name: "help", text: deps.Config.Messages.Help}.Handle
}

// textReplyHandler answers a command with a fixed configured text.
type textReplyHandler struct {
	deps HandlerDeps
	name string
	text string
}

func (h textReplyHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	msg := logger.EffectiveMessage(update)
	if msg == nil {
		log.WarnContext(ctx, "Handler received update without message", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling command", "chat_id", msg.Chat.ID)

	text := h.text
	if info := h.deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		text = strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	text = strings.ReplaceAll(text, "/summary", h.deps.Config.Summary.Command)

	err := h.deps.Messenger.SendText(ctx, OutgoingMessage{
		ChatID:               msg.Chat.ID,
		Text:                 text,
		BusinessConnectionID: msg.BusinessConnectionID,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", msg.Chat.ID)
	}
}
