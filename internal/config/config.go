// Package config provides configuration loading, validation, and management
// for summarygram. Values come from a YAML file, a local .env file and
// BOT_* environment variables, layered over built-in defaults.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration is returned for any failure while loading or validating configuration.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration of the application.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Summary       SummaryConfig       `mapstructure:"summary"`
	Store         StoreConfig         `mapstructure:"store"`
	AI            AIConfig            `mapstructure:"ai"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Ollama        OllamaConfig        `mapstructure:"ollama"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	Whisper       WhisperConfig       `mapstructure:"whisper"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Messages      MessagesConfig      `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and chat restrictions.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	AllowedChatIDs []int64       `mapstructure:"allowed_chat_ids"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// SummaryConfig tunes the summarization triggers.
type SummaryConfig struct {
	Command        string `mapstructure:"command"          validate:"required,startswith=/"`
	MsgLengthLimit int    `mapstructure:"msg_length_limit" validate:"gt=0"`
	TLDRPrefix     string `mapstructure:"tldr_prefix"      validate:"required"`
}

// StoreConfig selects and configures the history store driver.
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"           validate:"oneof=redis sqlite memory"`
	Address         string        `mapstructure:"address"          validate:"required_if=Driver redis"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"               validate:"min=0"`
	SQLitePath      string        `mapstructure:"sqlite_path"      validate:"required_if=Driver sqlite"`
	TTL             time.Duration `mapstructure:"ttl"              validate:"min=1m"`
	ConnectAttempts uint          `mapstructure:"connect_attempts" validate:"min=1,max=50"`
	ConnectDelay    time.Duration `mapstructure:"connect_delay"    validate:"min=10ms"`
}

// AIConfig holds settings shared by every language model provider.
type AIConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
}

// OpenAIConfig configures the OpenAI (or compatible) provider.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"            validate:"omitempty,url"`
	Model              string `mapstructure:"model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

// OllamaConfig configures a local Ollama server through its OpenAI-compatible endpoint.
type OllamaConfig struct {
	URL   string `mapstructure:"url"   validate:"omitempty,url"`
	Model string `mapstructure:"model" validate:"required_with=URL"`
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0,max=5"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// WhisperConfig points at a self-hosted server exposing the OpenAI audio transcription API.
type WhisperConfig struct {
	URL   string `mapstructure:"url"   validate:"omitempty,url"`
	Model string `mapstructure:"model"`
}

// TranscriptionConfig holds hints passed to the speech-to-text backend.
type TranscriptionConfig struct {
	Language  string `mapstructure:"language"`
	Translate bool   `mapstructure:"translate"`
}

// SchedulerConfig lists the scheduled tasks by registry name.
type SchedulerConfig struct {
	Timezone string                `mapstructure:"timezone"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a task and sets its cron schedule.
// Schedule accepts a six-field cron expression, "daily", "hourly" or "never".
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds user-facing texts.
type MessagesConfig struct {
	Welcome string `mapstructure:"welcome" validate:"required"`
	Help    string `mapstructure:"help"    validate:"required"`
}

// IsChatAllowed reports whether the chat passes the allow-list.
// An empty allow-list admits every chat.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.Telegram.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.Telegram.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
