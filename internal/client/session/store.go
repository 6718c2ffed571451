// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

// Package session persists the device-local copy of the user's session.
//
// The cache survives process restarts so the app can resume an authenticated
// state without asking for credentials again. It holds exactly one session:
// the token the server currently recognizes as this device's (and only this
// device's) active session, until a login elsewhere supersedes it.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sessionKey = "session"

// Session is the locally cached authentication state.
type Session struct {
	// Token is the bearer token presented on every request.
	Token string `json:"token"`
	// User is the profile returned at login, kept for offline display.
	User json.RawMessage `json:"user"`
	// SavedAt records when this session was cached.
	SavedAt time.Time `json:"saved_at"`
}

// Store is a single-slot, sqlite-backed session cache.
//
// All methods are serialized by an internal mutex: a force-logout purge
// racing a concurrent save resolves to one or the other, never a torn state.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates (or opens) the cache database at path and ensures its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session store: open %s: %w", path, err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS session_cache (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the cached session. The second return value is false when no
// session is cached.
func (s *Store) Load(ctx context.Context) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_cache WHERE key = ?`, sessionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session store: load: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt cache entry is treated as no session rather than a
		// permanently wedged client.
		return Session{}, false, nil
	}

	return sess, true, nil
}

// Save overwrites the cached session atomically.
func (s *Store) Save(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.SavedAt.IsZero() {
		sess.SavedAt = time.Now()
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session store: marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_cache (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, sessionKey, raw)
	if err != nil {
		return fmt.Errorf("session store: save: %w", err)
	}

	return nil
}

// Clear removes the cached session. Clearing an empty cache is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_cache WHERE key = ?`, sessionKey); err != nil {
		return fmt.Errorf("session store: clear: %w", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
