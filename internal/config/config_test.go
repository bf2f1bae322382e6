package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "empty disables", input: "", expected: ""},
		{name: "never disables", input: "never", expected: ""},
		{name: "never is case insensitive", input: " NEVER ", expected: ""},
		{name: "daily alias", input: "daily", expected: "0 0 0 * * *"},
		{name: "hourly alias", input: "hourly", expected: "0 0 * * * *"},
		{name: "five fields get seconds", input: "30 2 * * *", expected: "0 30 2 * * *"},
		{name: "six fields kept", input: "15 30 2 * * 1", expected: "15 30 2 * * 1"},
		{name: "extra spaces collapsed", input: "0  0   0 * * *", expected: "0 0 0 * * *"},
		{name: "too few fields", input: "* *", wantErr: true},
		{name: "too many fields", input: "0 0 0 * * * 2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeSchedule(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeSchedule(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("NormalizeSchedule(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsChatAllowed(t *testing.T) {
	t.Parallel()

	open := &Config{}
	if !open.IsChatAllowed(42) {
		t.Error("empty allow-list should admit every chat")
	}

	restricted := &Config{Telegram: TelegramConfig{AllowedChatIDs: []int64{-100123, 7}}}
	if !restricted.IsChatAllowed(-100123) || !restricted.IsChatAllowed(7) {
		t.Error("listed chats should be admitted")
	}
	if restricted.IsChatAllowed(8) {
		t.Error("unlisted chat should be rejected")
	}
}

// LoadConfig reads process-wide environment, so these tests do not run in parallel.
func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
	if cfg.Summary.Command != DefaultSummaryCommand {
		t.Errorf("Summary.Command = %q, want %q", cfg.Summary.Command, DefaultSummaryCommand)
	}
	if cfg.Summary.MsgLengthLimit != DefaultMsgLengthLimit {
		t.Errorf("Summary.MsgLengthLimit = %d, want %d", cfg.Summary.MsgLengthLimit, DefaultMsgLengthLimit)
	}
	if cfg.Store.Driver != DefaultStoreDriver || cfg.Store.TTL != DefaultStoreTTL {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.ConnectAttempts != DefaultStoreConnectAttempts {
		t.Errorf("Store.ConnectAttempts = %d", cfg.Store.ConnectAttempts)
	}
	if len(cfg.Telegram.AllowedChatIDs) != 0 {
		t.Errorf("AllowedChatIDs = %v, want empty", cfg.Telegram.AllowedChatIDs)
	}
	digest, ok := cfg.Scheduler.Tasks[TaskNightlyDigest]
	if !ok || !digest.Enabled || digest.Schedule != ScheduleDaily {
		t.Errorf("nightly digest task = %+v (present %v)", digest, ok)
	}
	if cfg.Transcription.Language != DefaultTranscriptionLanguage {
		t.Errorf("Transcription.Language = %q", cfg.Transcription.Language)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
telegram:
  token: "from-file"
  allowed_chat_ids: [-1001, 5]
summary:
  msg_length_limit: 250
store:
  driver: sqlite
  sqlite_path: history.db
  ttl: 72h
scheduler:
  tasks:
    nightly_digest:
      enabled: true
      schedule: "30 22 * * *"
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOT_SUMMARY_TLDR_PREFIX", "In short")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Telegram.Token != "from-file" {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.AllowedChatIDs) != 2 || cfg.Telegram.AllowedChatIDs[0] != -1001 {
		t.Errorf("AllowedChatIDs = %v", cfg.Telegram.AllowedChatIDs)
	}
	if cfg.Summary.MsgLengthLimit != 250 {
		t.Errorf("MsgLengthLimit = %d", cfg.Summary.MsgLengthLimit)
	}
	if cfg.Summary.TLDRPrefix != "In short" {
		t.Errorf("TLDRPrefix = %q, want env override", cfg.Summary.TLDRPrefix)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.TTL != 72*time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if got := cfg.Scheduler.Tasks[TaskNightlyDigest].Schedule; got != "30 22 * * *" {
		t.Errorf("digest schedule = %q", got)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"BOT_TELEGRAM_TOKEN": "x", "BOT_STORE_DRIVER": "mongo"}},
		{name: "zero length limit", env: map[string]string{"BOT_TELEGRAM_TOKEN": "x", "BOT_SUMMARY_MSG_LENGTH_LIMIT": "0"}},
		{name: "command without slash", env: map[string]string{"BOT_TELEGRAM_TOKEN": "x", "BOT_SUMMARY_COMMAND": "summary"}},
		{name: "bad schedule", env: map[string]string{"BOT_TELEGRAM_TOKEN": "x", "BOT_SCHEDULER_TASKS_NIGHTLY_DIGEST_SCHEDULE": "every day"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TELEGRAM_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("LoadConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
