package handlers

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
// When Match is set it selects the updates instead of Pattern and MatchType.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	Match       tgbot.MatchFunc
}

// RegisterAllCommands returns the command handlers keyed by command.
// The summary command has no handler of its own: it reaches the Router
// through the default handler so it follows the same policy as every message.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	allowed := []tgbot.Middleware{AllowedChatsOnly(deps)}

	handlers[CommandStart] = RegisteredHandler{
		Pattern:     strings.TrimPrefix(CommandStart, "/"),
		Description: "Show the welcome message",
		Handler:     NewStartHandler(deps),
		Middleware:  allowed,
		Match:       CommandMatcher(deps.Config, CommandStart),
	}
	handlers[CommandHelp] = RegisteredHandler{
		Pattern:     strings.TrimPrefix(CommandHelp, "/"),
		Description: "List the available commands",
		Handler:     NewHelpHandler(deps),
		Middleware:  allowed,
		Match:       CommandMatcher(deps.Config, CommandHelp),
	}

	summaryCmd := deps.Config.Summary.Command
	handlers[summaryCmd] = RegisteredHandler{
		Pattern:     strings.TrimPrefix(summaryCmd, "/"),
		Description: "Summarize the recent conversation",
	}

	return handlers
}
