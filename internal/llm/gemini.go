package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/derogab/summarygram/internal/config"
)

const (
	transcribeInstruction = "Transcribe this audio message verbatim in its original language. Reply with the transcript only."
	translateInstruction  = "Translate this audio message into English. Reply with the translation only."
)

// geminiClient serves both summarization and transcription through the
// Gemini API.
type geminiClient struct {
	models      *genai.Models
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	log         *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (*geminiClient, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		models:      gi.Models,
		model:       cfg.Gemini.Model,
		temperature: cfg.AI.Temperature,
		timeout:     cfg.AI.Timeout,
		maxRetries:  cfg.Gemini.MaxRetries,
		retryDelay:  cfg.Gemini.RetryDelay,
		log:         log.With("component", "gemini_client"),
	}, nil
}

func (c *geminiClient) Name() string { return ProviderGemini }

// Generate sends system messages as the system instruction and the remaining
// messages as conversation turns.
func (c *geminiClient) Generate(ctx context.Context, messages []Message) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := c.contentConfig()
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	c.log.DebugContext(ctx, "Generating summary", "model", c.model, "message_count", len(contents))
	resp, err := c.generateContentWithRetries(ctx, contents, cfg)
	if err != nil {
		return Message{}, providerErr(ProviderGemini, "generate content", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return Message{}, providerErr(ProviderGemini, "generate content", err)
	}
	return Message{Role: RoleAssistant, Content: text}, nil
}

// Transcribe sends the audio inline together with a short instruction.
func (c *geminiClient) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mimeType := opts.MIMEType
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	instruction := transcribeInstruction
	if opts.Translate {
		instruction = translateInstruction
	} else if lang := languageHint(opts.Language); lang != "" {
		instruction += " The expected language is " + lang + "."
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	c.log.DebugContext(ctx, "Transcribing audio", "model", c.model, "bytes", len(audio), "mime_type", mimeType)
	resp, err := c.generateContentWithRetries(ctx, contents, c.contentConfig())
	if err != nil {
		return "", providerErr(ProviderGemini, "transcription", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", providerErr(ProviderGemini, "transcription", err)
	}
	return text, nil
}

func (c *geminiClient) contentConfig() *genai.GenerateContentConfig {
	temperature := c.temperature
	return &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
}

// generateContentWithRetries retries server-side failures (HTTP 500 and 503)
// up to maxRetries times.
func (c *geminiClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		var apiErr genai.APIError
		retriable := errors.As(err, &apiErr) &&
			(apiErr.Code == http.StatusInternalServerError || apiErr.Code == http.StatusServiceUnavailable)
		if !retriable || attempt >= c.maxRetries {
			return nil, err
		}

		c.log.WarnContext(ctx, "Gemini API call failed, retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"code", apiErr.Code,
			"delay", c.retryDelay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}
	if fr := resp.Candidates[0].FinishReason; fr != genai.FinishReasonUnspecified && fr != genai.FinishReasonStop &&
		(resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0) {
		return "", fmt.Errorf("no content, finish reason: %s", fr)
	}

	return strings.TrimSpace(resp.Text()), nil
}
