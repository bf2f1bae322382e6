package handlers

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/logger"
)

// Commands served by their own handlers. The summary command is configurable
// and goes through the Router instead.
const (
	CommandStart = "/start"
	CommandHelp  = "/help"
)

// commandFor returns the bot command that opens text, without its @botname
// suffix. The second result is false when text is not a command or when the
// command is addressed to another bot.
func commandFor(cfg *config.Config, text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}

	name, target, addressed := strings.Cut(fields[0], "@")
	if name == "/" {
		return "", false
	}
	if addressed {
		info := cfg.Telegram.BotInfo
		if info == nil || !strings.EqualFold(target, info.Username) {
			return "", false
		}
	}
	return name, true
}

// isOwnCommand reports whether text is one of the commands with a dedicated handler.
func isOwnCommand(cfg *config.Config, text string) bool {
	name, ok := commandFor(cfg, text)
	return ok && (name == CommandStart || name == CommandHelp)
}

// CommandMatcher matches plain and business messages carrying command, either
// bare or addressed to this bot as in group chats ("/help@botname").
func CommandMatcher(cfg *config.Config, command string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		msg := logger.EffectiveMessage(update)
		if msg == nil {
			return false
		}
		name, ok := commandFor(cfg, msg.Text)
		return ok && name == command
	}
}
