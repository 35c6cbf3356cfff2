// Package userstore persists client-local key/value records in SQLite. The
// logged-in user lives under the "Users" key.
package userstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
)

const (
	// SchemaVersion is the current database schema version.
	SchemaVersion = "1"

	// DefaultPath is the default database location.
	DefaultPath = "data/local.db"

	// UserKey is the key holding the logged-in user.
	UserKey = "Users"
)

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("user store not open")

// Store is a SQLite-backed key/value store. It implements catalog.UserProvider.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

var _ catalog.UserProvider = (*Store)(nil)

// New creates a store at path. Call Open before use.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Open opens the database and initializes the schema.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db
	if err := s.initSchema(); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", s.path).Msg("User store opened")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS local_items (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version string
	err := s.db.QueryRow("SELECT value FROM store_meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if version == SchemaVersion {
		return nil
	}
	if version != "" {
		log.Info().Str("current", version).Str("target", SchemaVersion).Msg("Migrating user store schema")
	}
	_, err = s.db.Exec(`
		INSERT INTO store_meta (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, SchemaVersion)
	return err
}

// Get returns the raw value for key. ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", false, ErrNotOpen
	}
	err = s.db.QueryRow("SELECT value FROM local_items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.Exec(`
		INSERT INTO local_items (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.Exec("DELETE FROM local_items WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SaveUser persists u as the logged-in user.
func (s *Store) SaveUser(u catalog.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.Set(UserKey, string(data)); err != nil {
		return err
	}
	log.Info().Str("user", u.ID).Msg("User saved")
	return nil
}

// LoadUser returns the stored user. ok is false when nobody is logged in.
// A corrupt record is treated as logged out.
func (s *Store) LoadUser() (catalog.User, bool, error) {
	raw, ok, err := s.Get(UserKey)
	if err != nil || !ok {
		return catalog.User{}, false, err
	}
	var u catalog.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn().Err(err).Msg("Stored user record is corrupt")
		return catalog.User{}, false, nil
	}
	if u.ID == "" {
		return catalog.User{}, false, nil
	}
	return u, true, nil
}

// ClearUser logs the user out.
func (s *Store) ClearUser() error {
	return s.Delete(UserKey)
}

// CurrentUser implements catalog.UserProvider. Read errors count as logged out.
func (s *Store) CurrentUser() (catalog.User, bool) {
	u, ok, err := s.LoadUser()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read current user")
		return catalog.User{}, false
	}
	return u, ok
}
