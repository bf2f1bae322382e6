// Package store provides the chat history store: an append-only message log
// per chat with sliding expiry, enumeration of active chats and single-value
// lookups. Drivers exist for Redis, SQLite and process memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/derogab/summarygram/internal/config"
)

// Store drivers accepted in store.driver.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Key prefixes. A chat is active exactly while its ChatKeyPrefix key exists.
const (
	ChatKeyPrefix     = "chat:"
	BusinessKeyPrefix = "business:"
)

var (
	// ErrConnectFailed is returned when the backing store stays unreachable
	// after every connection attempt.
	ErrConnectFailed = errors.New("store connection failed")
	// ErrUnknownDriver is returned by NewStore for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrInvalidEntry is returned when an entry cannot be stored or decoded.
	ErrInvalidEntry = errors.New("invalid history entry")
)

// Entry is one stored chat message.
type Entry struct {
	Author  string `json:"author"  db:"author"`
	Content string `json:"content" db:"content"`
}

// Store defines the history store operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the connection to the backing store.
	Ping(ctx context.Context) error

	// Append adds an entry to the end of the chat history and refreshes the
	// chat expiry to the full window, as one atomic operation.
	Append(ctx context.Context, chatID int64, entry Entry) error

	// List returns the chat history oldest first. An expired or unknown chat
	// yields an empty slice, not an error.
	List(ctx context.Context, chatID int64) ([]Entry, error)

	// ActiveChats returns the ids of chats whose history has not expired.
	ActiveChats(ctx context.Context) ([]int64, error)

	// Delete drops the chat history immediately.
	Delete(ctx context.Context, chatID int64) error

	// SetValue stores a single value without expiry, overwriting any previous one.
	SetValue(ctx context.Context, key, value string) error

	// GetValue returns the value stored under key and whether it exists.
	GetValue(ctx context.Context, key string) (string, bool, error)

	// DeleteValue removes a single value. Missing keys are not an error.
	DeleteValue(ctx context.Context, key string) error

	// Maintain performs periodic housekeeping such as purging expired rows.
	Maintain(ctx context.Context) error

	// FlushAll removes every key owned by the store.
	FlushAll(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// ChatKey returns the store key of a chat history.
func ChatKey(chatID int64) string {
	return ChatKeyPrefix + strconv.FormatInt(chatID, 10)
}

// ChatIDFromKey recovers the chat id from a key built by ChatKey.
func ChatIDFromKey(key string) (int64, bool) {
	raw, ok := strings.CutPrefix(key, ChatKeyPrefix)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// BusinessKey returns the single-value key holding the business connection of a chat.
func BusinessKey(chatID int64) string {
	return BusinessKeyPrefix + strconv.FormatInt(chatID, 10)
}

// NewStore creates the Store selected by cfg.Driver and verifies the connection.
func NewStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverRedis:
		s, err := NewRedisStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
