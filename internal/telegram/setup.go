// Package telegram handles the setup of the Telegram client, the registration
// of update handlers and outbound messaging.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers the command handlers with the Telegram bot instance.
// Entries without a handler only appear in the command menu.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	registered := 0
	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Debug("Command served by the default handler", "command", name)
			continue
		}

		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		if regHandler.Match != nil {
			b.RegisterHandlerMatchFunc(regHandler.Match, finalHandler)
		} else {
			b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		}
		log.Debug("Registered handler", "command", name, "match_func", regHandler.Match != nil, "middleware_count", len(regHandler.Middleware))
		registered++
	}

	log.Info("Registered Telegram handlers successfully", "count", registered)
	return nil
}

// botCommands lists the registry entries with a description for the client
// command menu, sorted by command.
func botCommands(registeredHandlers map[string]handlers.RegisteredHandler) []models.BotCommand {
	commands := make([]models.BotCommand, 0, len(registeredHandlers))
	for name, regHandler := range registeredHandlers {
		if regHandler.Description == "" {
			continue
		}
		commands = append(commands, models.BotCommand{
			Command:     strings.TrimPrefix(name, "/"),
			Description: regHandler.Description,
		})
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Command < commands[j].Command })
	return commands
}

// SetCommands publishes the command menu shown by Telegram clients.
func SetCommands(ctx context.Context, b *bot.Bot, registeredHandlers map[string]handlers.RegisteredHandler) error {
	commands := botCommands(registeredHandlers)
	if len(commands) == 0 {
		return nil
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}
