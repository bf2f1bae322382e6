// Package tasks implements the scheduled tasks of the bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/derogab/summarygram/internal/bot/handlers"
	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      store.Store
	Summarizer llm.Summarizer
	Messenger  handlers.Messenger
}
