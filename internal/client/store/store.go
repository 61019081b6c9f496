// Package store keeps CLI state between runs in a local SQLite database.
// Values live in a key/value metadata table; the saved login session is
// stored there as JSON.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chitchat/internal/client/migrations"
	"github.com/dmitrijs2005/chitchat/internal/client/models"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sessionKey = "session"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns nil, nil for a missing key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// LoadSession returns the saved session, or nil when there is none.
func (s *Store) LoadSession(ctx context.Context) (*models.Session, error) {
	raw, err := s.Get(ctx, sessionKey)
	if err != nil || raw == nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("corrupt saved session: %w", err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Set(ctx, sessionKey, raw)
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, sessionKey)
}
