package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

const maxConnectDelay = 30 * time.Second

// connectWithRetry pings until the store answers, backing off exponentially.
// Only connection establishment is retried; individual operations are not.
func connectWithRetry(ctx context.Context, ping func(context.Context) error, attempts uint, delay time.Duration, log *slog.Logger) error {
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			return ping(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxConnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Store connection attempt failed, retrying",
				"attempt", n+1,
				"max_attempts", attempts,
				"error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %v", ErrConnectFailed, attempts, err)
	}
	return nil
}
