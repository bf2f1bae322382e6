package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/derogab/summarygram/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChatKeyRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []int64{1, -1001234567890, 42, 0} {
		key := ChatKey(id)
		got, ok := ChatIDFromKey(key)
		if !ok || got != id {
			t.Errorf("ChatIDFromKey(%q) = %d, %v; want %d, true", key, got, ok, id)
		}
	}
}

func TestChatIDFromKeyRejects(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		key  string
	}{
		{name: "missing prefix", key: "123"},
		{name: "other prefix", key: "business:123"},
		{name: "empty remainder", key: "chat:"},
		{name: "non numeric", key: "chat:abc"},
		{name: "trailing garbage", key: "chat:12x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if id, ok := ChatIDFromKey(tc.key); ok {
				t.Errorf("ChatIDFromKey(%q) = %d, true; want rejection", tc.key, id)
			}
		})
	}
}

func TestBusinessKey(t *testing.T) {
	t.Parallel()

	if got := BusinessKey(-100); got != "business:-100" {
		t.Errorf("BusinessKey(-100) = %q", got)
	}
}

func TestCodecPreservesContent(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Author: "alice", Content: "plain"},
		{Author: "bob", Content: "a###b###c"},
		{Author: "carol", Content: "line one\nline two"},
		{Author: "12345", Content: ""},
		{Author: "dave", Content: "émoji 🚀 and \"quotes\""},
	}

	for _, e := range entries {
		raw, err := encodeEntry(e)
		if err != nil {
			t.Fatalf("encodeEntry(%+v) error: %v", e, err)
		}
		got, err := decodeEntry(raw)
		if err != nil {
			t.Fatalf("decodeEntry(%q) error: %v", raw, err)
		}
		if got != e {
			t.Errorf("round trip = %+v, want %+v", got, e)
		}
	}
}

func TestCodecRejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := encodeEntry(Entry{Content: "x"}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("encodeEntry without author error = %v, want ErrInvalidEntry", err)
	}
	if _, err := decodeEntry("alice###hello"); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("decodeEntry legacy format error = %v, want ErrInvalidEntry", err)
	}
	got, err := decodeEntries(nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("decodeEntries(nil) = %v, %v; want empty slice", got, err)
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	t.Parallel()

	s, err := NewStore(context.Background(), config.StoreConfig{Driver: "etcd"}, discardLogger())
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("NewStore error = %v, want ErrUnknownDriver", err)
	}
	if s != nil {
		t.Errorf("NewStore returned non-nil store %v", s)
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// storeCase describes a driver under test with a controllable clock.
type storeCase struct {
	name  string
	open  func(t *testing.T, ttl time.Duration, clock *fakeClock) Store
	clock bool
}

func driverCases() []storeCase {
	cases := []storeCase{
		{
			name:  DriverMemory,
			clock: true,
			open: func(t *testing.T, ttl time.Duration, clock *fakeClock) Store {
				t.Helper()
				s := NewMemoryStore(ttl)
				s.now = clock.now
				return s
			},
		},
		{
			name:  DriverSQLite,
			clock: true,
			open: func(t *testing.T, ttl time.Duration, clock *fakeClock) Store {
				t.Helper()
				s, err := NewSQLiteStore(context.Background(), config.StoreConfig{
					Driver:          DriverSQLite,
					SQLitePath:      filepath.Join(t.TempDir(), "history.db"),
					TTL:             ttl,
					ConnectAttempts: 1,
					ConnectDelay:    10 * time.Millisecond,
				}, discardLogger())
				if err != nil {
					t.Fatalf("NewSQLiteStore error: %v", err)
				}
				s.now = clock.now
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cases = append(cases, storeCase{
			name: DriverRedis,
			open: func(t *testing.T, ttl time.Duration, _ *fakeClock) Store {
				t.Helper()
				s, err := NewRedisStore(context.Background(), config.StoreConfig{
					Driver:          DriverRedis,
					Address:         addr,
					DB:              15,
					TTL:             ttl,
					ConnectAttempts: 1,
					ConnectDelay:    10 * time.Millisecond,
				}, discardLogger())
				if err != nil {
					t.Fatalf("NewRedisStore error: %v", err)
				}
				if err := s.FlushAll(context.Background()); err != nil {
					t.Fatalf("FlushAll error: %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		})
	}
	return cases
}

func TestStoreAppendAndList(t *testing.T) {
	for _, dc := range driverCases() {
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			s := dc.open(t, time.Hour, clock)

			want := []Entry{
				{Author: "alice", Content: "hello"},
				{Author: "bob", Content: "a###b"},
				{Author: "alice", Content: "bye"},
			}
			for _, e := range want {
				if err := s.Append(ctx, 7, e); err != nil {
					t.Fatalf("Append error: %v", err)
				}
			}

			got, err := s.List(ctx, 7)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("List = %+v, want %+v", got, want)
			}

			empty, err := s.List(ctx, 8)
			if err != nil {
				t.Fatalf("List unknown chat error: %v", err)
			}
			if empty == nil || len(empty) != 0 {
				t.Errorf("List unknown chat = %v, want empty slice", empty)
			}

			if err := s.Append(ctx, -100, Entry{Author: "carol", Content: "x"}); err != nil {
				t.Fatalf("Append error: %v", err)
			}
			ids, err := s.ActiveChats(ctx)
			if err != nil {
				t.Fatalf("ActiveChats error: %v", err)
			}
			if !slices.Equal(ids, []int64{-100, 7}) {
				t.Errorf("ActiveChats = %v, want [-100 7]", ids)
			}

			if err := s.Delete(ctx, 7); err != nil {
				t.Fatalf("Delete error: %v", err)
			}
			ids, _ = s.ActiveChats(ctx)
			if !slices.Equal(ids, []int64{-100}) {
				t.Errorf("ActiveChats after delete = %v, want [-100]", ids)
			}

			if err := s.Append(ctx, 7, Entry{Content: "anonymous"}); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Append without author error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestStoreSlidingExpiry(t *testing.T) {
	for _, dc := range driverCases() {
		if !dc.clock {
			continue
		}
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			s := dc.open(t, time.Hour, clock)

			mustAppend := func(content string) {
				t.Helper()
				if err := s.Append(ctx, 1, Entry{Author: "a", Content: content}); err != nil {
					t.Fatalf("Append error: %v", err)
				}
			}

			mustAppend("first")
			clock.advance(50 * time.Minute)
			mustAppend("second")

			// 100 minutes after the first append, but only 50 after the last.
			clock.advance(50 * time.Minute)
			got, err := s.List(ctx, 1)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("List within window = %+v, want both entries", got)
			}

			clock.advance(time.Hour)
			got, err = s.List(ctx, 1)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("List after expiry = %+v, want empty", got)
			}
			ids, err := s.ActiveChats(ctx)
			if err != nil {
				t.Fatalf("ActiveChats error: %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("ActiveChats after expiry = %v, want empty", ids)
			}

			// A new append after expiry starts a fresh history.
			mustAppend("third")
			got, _ = s.List(ctx, 1)
			if !slices.Equal(got, []Entry{{Author: "a", Content: "third"}}) {
				t.Errorf("List after restart = %+v, want only third", got)
			}

			clock.advance(2 * time.Hour)
			if err := s.Maintain(ctx); err != nil {
				t.Fatalf("Maintain error: %v", err)
			}
			ids, _ = s.ActiveChats(ctx)
			if len(ids) != 0 {
				t.Errorf("ActiveChats after Maintain = %v, want empty", ids)
			}
		})
	}
}

func TestStoreValues(t *testing.T) {
	for _, dc := range driverCases() {
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
			s := dc.open(t, time.Hour, clock)

			key := BusinessKey(5)
			if _, ok, err := s.GetValue(ctx, key); err != nil || ok {
				t.Fatalf("GetValue missing = ok %v, err %v; want absent", ok, err)
			}

			if err := s.SetValue(ctx, key, "conn-1"); err != nil {
				t.Fatalf("SetValue error: %v", err)
			}
			if err := s.SetValue(ctx, key, "conn-2"); err != nil {
				t.Fatalf("SetValue overwrite error: %v", err)
			}
			v, ok, err := s.GetValue(ctx, key)
			if err != nil || !ok || v != "conn-2" {
				t.Errorf("GetValue = %q, %v, %v; want conn-2", v, ok, err)
			}

			// Values never appear as chats.
			ids, _ := s.ActiveChats(ctx)
			if len(ids) != 0 {
				t.Errorf("ActiveChats with only values = %v, want empty", ids)
			}

			if err := s.DeleteValue(ctx, key); err != nil {
				t.Fatalf("DeleteValue error: %v", err)
			}
			if err := s.DeleteValue(ctx, key); err != nil {
				t.Fatalf("DeleteValue missing key error: %v", err)
			}
			if _, ok, _ := s.GetValue(ctx, key); ok {
				t.Error("GetValue after delete reports present")
			}

			_ = s.Append(ctx, 1, Entry{Author: "a", Content: "b"})
			_ = s.SetValue(ctx, key, "conn-3")
			if err := s.FlushAll(ctx); err != nil {
				t.Fatalf("FlushAll error: %v", err)
			}
			ids, _ = s.ActiveChats(ctx)
			_, ok, _ = s.GetValue(ctx, key)
			if len(ids) != 0 || ok {
				t.Errorf("after FlushAll chats %v value present %v; want nothing", ids, ok)
			}
		})
	}
}

func TestSQLiteStoreReopenKeepsHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver:          DriverSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "history.db"),
		TTL:             time.Hour,
		ConnectAttempts: 1,
		ConnectDelay:    10 * time.Millisecond,
	}

	s, err := NewSQLiteStore(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	if err := s.Append(ctx, 3, Entry{Author: "a", Content: "kept"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	reopened, err := NewSQLiteStore(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.List(ctx, 3)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if !slices.Equal(got, []Entry{{Author: "a", Content: "kept"}}) {
		t.Errorf("List after reopen = %+v", got)
	}
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := connectWithRetry(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}, 3, time.Millisecond, discardLogger())

	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("connectWithRetry error = %v, want ErrConnectFailed", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestConnectWithRetryRecovers(t *testing.T) {
	t.Parallel()

	calls := 0
	err := connectWithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("loading dataset")
		}
		return nil
	}, 5, time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("connectWithRetry error = %v", err)
	}
	if calls != 2 {
		t.Errorf("ping called %d times, want 2", calls)
	}
}
