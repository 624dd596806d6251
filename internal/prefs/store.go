// Package prefs persists the small set of user preferences that survive
// page reloads: selected language, theme, and the one-time greeting flag.
// It is the only durable state in the system; transcripts are never stored.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Preference keys.
const (
	KeyLang     = "lang"
	KeyTheme    = "theme"
	KeyChatSeen = "chat_seen"
)

// ErrNotFound is returned when a preference has never been set.
var ErrNotFound = errors.New("preference not found")

// Store is a SQLite-backed key-value preference store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the preference database in dataDir. Pass ":memory:"
// as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "folio.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating preferences table: %w", err)
	}
	return nil
}

// Set writes a preference value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Get reads a preference value, or ErrNotFound when it was never set.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// All returns every stored preference.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM preferences")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// Lang returns the saved UI language, or fallback when unset.
func (s *Store) Lang(fallback string) string {
	v, err := s.Get(KeyLang)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

// Theme returns the saved theme, defaulting to "dark".
func (s *Store) Theme() string {
	v, err := s.Get(KeyTheme)
	if err != nil || (v != "light" && v != "dark") {
		return "dark"
	}
	return v
}

// MarkChatSeen flips the one-time greeting flag. It returns true when this
// call was the first, i.e. the greeting should be shown now.
func (s *Store) MarkChatSeen() (bool, error) {
	v, err := s.Get(KeyChatSeen)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if v == "true" {
		return false, nil
	}
	if err := s.Set(KeyChatSeen, "true"); err != nil {
		return false, err
	}
	return true, nil
}
