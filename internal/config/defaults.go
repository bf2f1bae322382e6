package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultTelegramRequestTimeout = 30 * time.Second

	DefaultSummaryCommand = "/summary"
	DefaultMsgLengthLimit = 1000
	DefaultTLDRPrefix     = "TL;DR"

	DefaultStoreDriver          = "redis"
	DefaultStoreAddress         = "localhost:6379"
	DefaultStoreSQLitePath      = "summarygram.db"
	DefaultStoreTTL             = 8 * time.Hour
	DefaultStoreConnectAttempts = 10
	DefaultStoreConnectDelay    = 500 * time.Millisecond

	DefaultAITimeout     = 2 * time.Minute
	DefaultAITemperature = 0.7

	DefaultOpenAIModel              = "gpt-4o-mini"
	DefaultOpenAITranscriptionModel = "whisper-1"
	DefaultGeminiModel              = "gemini-2.0-flash"
	DefaultGeminiRetryDelay         = 2 * time.Second
	DefaultWhisperModel             = "whisper-1"

	DefaultTranscriptionLanguage = "auto"

	DefaultSchedulerTimezone = "UTC"

	// Task names as used in the scheduler.tasks section.
	TaskNightlyDigest    = "nightly_digest"
	TaskStoreMaintenance = "store_maintenance"

	DefaultWelcomeMsg = "Hi! Add me to a group and I will keep track of the conversation. Send /summary to get a recap."
	DefaultHelpMsg    = "Commands:\n/summary - summarize the recent conversation\n\nLong messages get an automatic TL;DR reply."
)

// setDefaults registers default values so that viper can also resolve the
// matching BOT_* environment variables for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.allowed_chat_ids", []int64{})
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)

	v.SetDefault("summary.command", DefaultSummaryCommand)
	v.SetDefault("summary.msg_length_limit", DefaultMsgLengthLimit)
	v.SetDefault("summary.tldr_prefix", DefaultTLDRPrefix)

	v.SetDefault("store.driver", DefaultStoreDriver)
	v.SetDefault("store.address", DefaultStoreAddress)
	v.SetDefault("store.password", "")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.sqlite_path", DefaultStoreSQLitePath)
	v.SetDefault("store.ttl", DefaultStoreTTL)
	v.SetDefault("store.connect_attempts", DefaultStoreConnectAttempts)
	v.SetDefault("store.connect_delay", DefaultStoreConnectDelay)

	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.temperature", DefaultAITemperature)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.transcription_model", DefaultOpenAITranscriptionModel)

	v.SetDefault("ollama.url", "")
	v.SetDefault("ollama.model", "")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.max_retries", 0)
	v.SetDefault("gemini.retry_delay", DefaultGeminiRetryDelay)

	v.SetDefault("whisper.url", "")
	v.SetDefault("whisper.model", DefaultWhisperModel)

	v.SetDefault("transcription.language", DefaultTranscriptionLanguage)
	v.SetDefault("transcription.translate", false)

	v.SetDefault("scheduler.timezone", DefaultSchedulerTimezone)
	v.SetDefault("scheduler.tasks."+TaskNightlyDigest+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskNightlyDigest+".schedule", ScheduleDaily)
	v.SetDefault("scheduler.tasks."+TaskStoreMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskStoreMaintenance+".schedule", ScheduleHourly)

	v.SetDefault("messages.welcome", DefaultWelcomeMsg)
	v.SetDefault("messages.help", DefaultHelpMsg)
}
