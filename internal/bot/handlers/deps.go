package handlers

import (
	"log/slog"

	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
)

// HandlerDeps provides dependencies for Telegram update handlers.
// Transcriber is nil when no speech-to-text backend is configured.
type HandlerDeps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Store       store.Store
	Summarizer  llm.Summarizer
	Transcriber llm.Transcriber
	Messenger   Messenger
}
