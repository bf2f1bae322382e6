package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLoggerJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "warn", true)
	log.Info("dropped")
	log.Warn("kept", "chat_id", int64(7))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["chat_id"] != float64(7) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestEffectiveMessageAndUpdateType(t *testing.T) {
	t.Parallel()

	direct := &models.Message{ID: 1}
	business := &models.Message{ID: 2}

	tests := []struct {
		name     string
		update   *models.Update
		wantMsg  *models.Message
		wantType string
	}{
		{name: "nil update", update: nil, wantMsg: nil, wantType: "none"},
		{name: "message", update: &models.Update{Message: direct}, wantMsg: direct, wantType: "message"},
		{name: "business message", update: &models.Update{BusinessMessage: business}, wantMsg: business, wantType: "business_message"},
		{name: "business connection", update: &models.Update{BusinessConnection: &models.BusinessConnection{ID: "c"}}, wantMsg: nil, wantType: "business_connection"},
		{name: "empty", update: &models.Update{}, wantMsg: nil, wantType: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EffectiveMessage(tt.update); got != tt.wantMsg {
				t.Errorf("EffectiveMessage() = %v, want %v", got, tt.wantMsg)
			}
			if got := UpdateType(tt.update); got != tt.wantType {
				t.Errorf("UpdateType() = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("abcdefghij", 6); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := truncateString("ààààààà", 5); got != "àà..." {
		t.Errorf("multibyte truncation got %q", got)
	}
}
