// Package llm provides the language model backends of the bot: a Summarizer
// that turns a conversation into a reply and a Transcriber that converts voice
// and audio attachments to text. Exactly one provider of each kind is chosen
// at startup from configuration.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrNoProviderConfigured is returned when no summarization backend is configured.
	ErrNoProviderConfigured = errors.New("no language model provider configured")
	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("language model provider failed")
)

// Message is one chat message exchanged with a provider.
type Message struct {
	Role    string
	Content string
}

// Summarizer generates a reply for a role-tagged conversation.
type Summarizer interface {
	// Name reports the provider behind the summarizer.
	Name() string
	// Generate returns the assistant reply. The reply content may be empty.
	Generate(ctx context.Context, messages []Message) (Message, error)
}

// TranscribeOptions carries per-call hints for speech-to-text.
type TranscribeOptions struct {
	// MIMEType of the audio payload, e.g. audio/ogg for voice notes.
	MIMEType string
	// Language is an ISO-639-1 hint; "auto" or empty lets the backend detect it.
	Language string
	// Translate asks for an English translation instead of a transcript.
	Translate bool
}

// Transcriber converts audio to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error)
}

// ProviderError reports a failed call to a provider.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrProvider) hold for any ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func providerErr(provider, op string, err error) error {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// unconfigured stands in when no summarization backend is set up, so the bot
// keeps collecting history and reports the problem per request.
type unconfigured struct{}

func (unconfigured) Name() string { return "none" }

func (unconfigured) Generate(context.Context, []Message) (Message, error) {
	return Message{}, ErrNoProviderConfigured
}

// languageHint maps the "auto" sentinel to the empty hint understood by backends.
func languageHint(lang string) string {
	if lang == "auto" {
		return ""
	}
	return lang
}
