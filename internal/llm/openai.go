package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderGemini  = "gemini"
	ProviderWhisper = "whisper"
)

// ollamaAPIKey is sent to Ollama, which ignores it but rejects empty bearer headers
// behind some proxies.
const ollamaAPIKey = "ollama"

var errNoChoices = errors.New("no choices returned")

// chatCompletionClient is the subset of *openai.Client used for summarization.
type chatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// audioClient is the subset of *openai.Client used for transcription.
type audioClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	CreateTranslation(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// chatSummarizer talks to any OpenAI-compatible chat completion endpoint.
type chatSummarizer struct {
	name        string
	client      chatCompletionClient
	model       string
	temperature float32
	timeout     time.Duration
	log         *slog.Logger
}

func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// ollamaBaseURL points at the OpenAI-compatible API that Ollama serves under /v1.
func ollamaBaseURL(url string) string {
	url = strings.TrimRight(url, "/")
	if strings.HasSuffix(url, "/v1") {
		return url
	}
	return url + "/v1"
}

func (s *chatSummarizer) Name() string { return s.name }

func (s *chatSummarizer) Generate(ctx context.Context, messages []Message) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chat = append(chat, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	s.log.DebugContext(ctx, "Requesting chat completion", "model", s.model, "message_count", len(chat))
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    chat,
		Temperature: s.temperature,
	})
	if err != nil {
		return Message{}, providerErr(s.name, "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, providerErr(s.name, "chat completion", errNoChoices)
	}

	return Message{
		Role:    RoleAssistant,
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
	}, nil
}

// audioTranscriber talks to an OpenAI-compatible audio endpoint, either OpenAI
// Whisper or a self-hosted server exposing the same API.
type audioTranscriber struct {
	name    string
	client  audioClient
	model   string
	timeout time.Duration
	log     *slog.Logger
}

func (t *audioTranscriber) Name() string { return t.name }

func (t *audioTranscriber) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioFileName(opts.MIMEType),
		Reader:   bytes.NewReader(audio),
		Language: languageHint(opts.Language),
	}

	t.log.DebugContext(ctx, "Requesting transcription",
		"model", t.model,
		"bytes", len(audio),
		"translate", opts.Translate)

	var (
		resp openai.AudioResponse
		err  error
	)
	if opts.Translate {
		// Translation always targets English and takes no language hint.
		req.Language = ""
		resp, err = t.client.CreateTranslation(ctx, req)
	} else {
		resp, err = t.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return "", providerErr(t.name, "transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// audioFileName derives the multipart file name from the MIME type; the audio
// API infers the container format from its extension.
func audioFileName(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "audio.ogg"
	}
	switch mediaType {
	case "audio/ogg", "audio/opus", "audio/x-opus+ogg":
		return "audio.ogg"
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return "audio.m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "audio.wav"
	case "audio/webm":
		return "audio.webm"
	case "audio/flac", "audio/x-flac":
		return "audio.flac"
	default:
		return "audio.ogg"
	}
}
