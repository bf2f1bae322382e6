package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// SQLiteStore implements Store on an embedded SQLite database. Each chat row
// carries its expiry; history rows of an expired chat are ignored on read and
// removed on the next append or by Maintain.
type SQLiteStore struct {
	db     *sqlx.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStore opens the database file, applies migrations and verifies the connection.
func NewSQLiteStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*SQLiteStore, error) {
	log := logger.With("component", "store", "driver", DriverSQLite)

	db, err := sqlx.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support concurrent writes, so max open conns = 1
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := connectWithRetry(ctx, db.PingContext, cfg.ConnectAttempts, cfg.ConnectDelay, log); err != nil {
		closeDB(db, log)
		return nil, err
	}

	if err := ApplyMigrations(db.DB, log); err != nil {
		closeDB(db, log)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database connected and migrations applied successfully", "path", cfg.SQLitePath, "ttl", cfg.TTL)
	return &SQLiteStore{
		db:     db,
		ttl:    cfg.TTL,
		now:    time.Now,
		logger: log,
	}, nil
}

// ApplyMigrations runs the embedded migrations against db.
func ApplyMigrations(db *sql.DB, log *slog.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite database driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No database migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func closeDB(db *sqlx.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	}
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append implements Store. The insert and the expiry refresh share one transaction.
func (s *SQLiteStore) Append(ctx context.Context, chatID int64, entry Entry) (err error) {
	if entry.Author == "" {
		return fmt.Errorf("%w: empty author", ErrInvalidEntry)
	}

	now := s.now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.ErrorContext(ctx, "Failed to rollback append", "chat_id", chatID, "error", rbErr)
			}
		}
	}()

	var expiresAt int64
	err = tx.GetContext(ctx, &expiresAt, `SELECT expires_at FROM chats WHERE chat_id = ?`, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("failed to read chat expiry: %w", err)
	case expiresAt <= now.UnixNano():
		// The previous sequence expired as a whole; start a fresh one.
		if _, err = tx.ExecContext(ctx, `DELETE FROM history_entries WHERE chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("failed to drop expired history: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO history_entries (chat_id, author, content, created_at) VALUES (?, ?, ?, ?)`,
		chatID, entry.Author, entry.Content, now.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO chats (chat_id, expires_at) VALUES (?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET expires_at = excluded.expires_at`,
		chatID, now.Add(s.ttl).UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to refresh chat expiry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, chatID int64) ([]Entry, error) {
	entries := []Entry{}
	err := s.db.SelectContext(ctx, &entries,
		`SELECT h.author, h.content
		   FROM history_entries h
		   JOIN chats c ON c.chat_id = h.chat_id
		  WHERE h.chat_id = ? AND c.expires_at > ?
		  ORDER BY h.id`,
		chatID, s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// ActiveChats implements Store.
func (s *SQLiteStore) ActiveChats(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT chat_id FROM chats WHERE expires_at > ? ORDER BY chat_id`,
		s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active chats: %w", err)
	}
	return ids, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, chatID int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM history_entries WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return tx.Commit()
}

// SetValue implements Store.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// GetValue implements Store.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// DeleteValue implements Store.
func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Maintain implements Store: it purges expired chats and lets SQLite refresh
// its query planner statistics.
func (s *SQLiteStore) Maintain(ctx context.Context) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	cutoff := s.now().UnixNano()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM history_entries
		  WHERE chat_id IN (SELECT chat_id FROM chats WHERE expires_at <= ?)`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge expired history: %w", err)
	}
	purgedEntries, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM chats WHERE expires_at <= ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge expired chats: %w", err)
	}
	purgedChats, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, `PRAGMA optimize`); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}

	s.logger.InfoContext(ctx, "Store maintenance completed",
		"purged_chats", purgedChats,
		"purged_entries", purgedEntries)
	return nil
}

// FlushAll implements Store.
func (s *SQLiteStore) FlushAll(ctx context.Context) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"history_entries", "chats", "kv"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to flush %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
