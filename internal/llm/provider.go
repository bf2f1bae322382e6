package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/derogab/summarygram/internal/config"
)

// summarizerProvider pairs a configuration predicate with a constructor.
type summarizerProvider struct {
	name       string
	configured func(cfg *config.Config) bool
	build      func(ctx context.Context, cfg *config.Config, log *slog.Logger) (Summarizer, error)
}

type transcriberProvider struct {
	name       string
	configured func(cfg *config.Config) bool
	build      func(ctx context.Context, cfg *config.Config, log *slog.Logger) (Transcriber, error)
}

// summarizerProviders is ordered by priority; the first configured entry wins.
var summarizerProviders = []summarizerProvider{
	{
		name:       ProviderOpenAI,
		configured: func(cfg *config.Config) bool { return cfg.OpenAI.APIKey != "" },
		build: func(_ context.Context, cfg *config.Config, log *slog.Logger) (Summarizer, error) {
			return &chatSummarizer{
				name:        ProviderOpenAI,
				client:      newOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL),
				model:       cfg.OpenAI.Model,
				temperature: cfg.AI.Temperature,
				timeout:     cfg.AI.Timeout,
				log:         log,
			}, nil
		},
	},
	{
		name:       ProviderOllama,
		configured: func(cfg *config.Config) bool { return cfg.Ollama.URL != "" },
		build: func(_ context.Context, cfg *config.Config, log *slog.Logger) (Summarizer, error) {
			return &chatSummarizer{
				name:        ProviderOllama,
				client:      newOpenAIClient(ollamaAPIKey, ollamaBaseURL(cfg.Ollama.URL)),
				model:       cfg.Ollama.Model,
				temperature: cfg.AI.Temperature,
				timeout:     cfg.AI.Timeout,
				log:         log,
			}, nil
		},
	},
	{
		name:       ProviderGemini,
		configured: func(cfg *config.Config) bool { return cfg.Gemini.APIKey != "" },
		build: func(ctx context.Context, cfg *config.Config, log *slog.Logger) (Summarizer, error) {
			return newGeminiClient(ctx, cfg, log)
		},
	},
}

// transcriberProviders is ordered by priority; the first configured entry wins.
var transcriberProviders = []transcriberProvider{
	{
		name:       ProviderOpenAI,
		configured: func(cfg *config.Config) bool { return cfg.OpenAI.APIKey != "" },
		build: func(_ context.Context, cfg *config.Config, log *slog.Logger) (Transcriber, error) {
			return &audioTranscriber{
				name:    ProviderOpenAI,
				client:  newOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL),
				model:   cfg.OpenAI.TranscriptionModel,
				timeout: cfg.AI.Timeout,
				log:     log,
			}, nil
		},
	},
	{
		name:       ProviderWhisper,
		configured: func(cfg *config.Config) bool { return cfg.Whisper.URL != "" },
		build: func(_ context.Context, cfg *config.Config, log *slog.Logger) (Transcriber, error) {
			return &audioTranscriber{
				name:    ProviderWhisper,
				client:  newOpenAIClient("", cfg.Whisper.URL),
				model:   cfg.Whisper.Model,
				timeout: cfg.AI.Timeout,
				log:     log,
			}, nil
		},
	},
	{
		name:       ProviderGemini,
		configured: func(cfg *config.Config) bool { return cfg.Gemini.APIKey != "" },
		build: func(ctx context.Context, cfg *config.Config, log *slog.Logger) (Transcriber, error) {
			return newGeminiClient(ctx, cfg, log)
		},
	},
}

// NewSummarizer builds the highest-priority configured summarization backend:
// OpenAI, then Ollama, then Gemini. With none configured the returned
// Summarizer fails every call with ErrNoProviderConfigured.
func NewSummarizer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Summarizer, error) {
	log := logger.With("component", "summarizer")
	for _, p := range summarizerProviders {
		if !p.configured(cfg) {
			continue
		}
		s, err := p.build(ctx, cfg, log.With("provider", p.name))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s summarizer: %w", p.name, err)
		}
		log.Info("Summarization provider selected", "provider", p.name)
		return s, nil
	}

	log.Warn("No summarization provider configured; summary requests will fail")
	return unconfigured{}, nil
}

// NewTranscriber builds the highest-priority configured speech-to-text backend:
// OpenAI Whisper, then a self-hosted Whisper server, then Gemini. It returns
// nil when none is configured, which disables transcription.
func NewTranscriber(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Transcriber, error) {
	log := logger.With("component", "transcriber")
	for _, p := range transcriberProviders {
		if !p.configured(cfg) {
			continue
		}
		t, err := p.build(ctx, cfg, log.With("provider", p.name))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s transcriber: %w", p.name, err)
		}
		log.Info("Transcription provider selected", "provider", p.name)
		return t, nil
	}

	log.Info("No transcription provider configured; voice messages will be ignored")
	return nil, nil
}
