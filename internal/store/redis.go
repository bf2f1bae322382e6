package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/derogab/summarygram/internal/config"
)

const scanBatchSize = 100

// RedisStore implements Store on Redis lists with key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to Redis, retrying with exponential backoff up to
// cfg.ConnectAttempts times before giving up with ErrConnectFailed.
func NewRedisStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "store", "driver", DriverRedis)
	s := &RedisStore{
		client: redis.NewClient(opts),
		ttl:    cfg.TTL,
		logger: log,
	}

	if err := connectWithRetry(ctx, s.Ping, cfg.ConnectAttempts, cfg.ConnectDelay, log); err != nil {
		_ = s.client.Close()
		return nil, err
	}

	log.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB, "ttl", cfg.TTL)
	return s, nil
}

// redisOptions accepts either a redis:// URL or a host:port address.
func redisOptions(cfg config.StoreConfig) (*redis.Options, error) {
	var opts *redis.Options
	if strings.Contains(cfg.Address, "://") {
		parsed, err := redis.ParseURL(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	// Commands are not retried by the client; failures surface to the caller.
	opts.MaxRetries = -1
	return opts, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Append implements Store. RPUSH and EXPIRE run in one MULTI/EXEC block.
func (s *RedisStore) Append(ctx context.Context, chatID int64, entry Entry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	key := ChatKey(chatID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, chatID int64) ([]Entry, error) {
	key := ChatKey(chatID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	return decodeEntries(raw)
}

// ActiveChats implements Store by scanning chat keys.
func (s *RedisStore) ActiveChats(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})
	iter := s.client.Scan(ctx, 0, ChatKeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		id, ok := ChatIDFromKey(iter.Val())
		if !ok {
			s.logger.WarnContext(ctx, "Skipping malformed chat key", "key", iter.Val())
			continue
		}
		seen[id] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan chat keys: %w", err)
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, ChatKey(chatID)).Err()
}

// SetValue implements Store.
func (s *RedisStore) SetValue(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// GetValue implements Store.
func (s *RedisStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteValue implements Store.
func (s *RedisStore) DeleteValue(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Maintain implements Store. Redis expires keys natively.
func (s *RedisStore) Maintain(ctx context.Context) error {
	return nil
}

// FlushAll implements Store. Only the configured database is flushed.
func (s *RedisStore) FlushAll(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
