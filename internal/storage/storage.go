// Package storage is the blob-store boundary. The backing store is a
// plain key→value table: no transactions spanning keys, no partial
// updates, no locks. Every collection is read whole, mutated in memory
// by the pure store packages, and written back whole. Keeping the
// boundary this thin means a transactional backend later only replaces
// this package.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lotas/tabsammlung/internal/types"
)

// Blob-store keys. The contract with the host: values are opaque JSON.
const (
	KeySettings         = "userSettings"
	KeySavedTabs        = "savedTabs"
	KeyParentCategories = "parentCategories"
)

// migration is a numbered schema change, applied once and tracked in
// schema_migrations.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "key-value blob table",
		SQL: `
CREATE TABLE IF NOT EXISTS kv (
    key         TEXT PRIMARY KEY,
    value       BLOB NOT NULL,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
	},
}

// Store wraps the sqlite-backed blob store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path, creating parent
// directories and applying pending migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		if err := db.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// Close closes the backing database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DefaultPath returns ~/.local/share/tabsammlung/tabsammlung.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tabsammlung", "tabsammlung.db"), nil
}

// Get reads the raw blob for a key. A missing key returns nil, nil.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Put writes the raw blob for a key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func getJSON(ctx context.Context, s *Store, key string, out any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// LoadGroups reads the savedTabs collection. A missing key is an empty
// collection.
func (s *Store) LoadGroups(ctx context.Context) ([]types.TabGroup, error) {
	var groups []types.TabGroup
	if err := getJSON(ctx, s, KeySavedTabs, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SaveGroups writes the full savedTabs collection.
func (s *Store) SaveGroups(ctx context.Context, groups []types.TabGroup) error {
	if groups == nil {
		groups = []types.TabGroup{}
	}
	return putJSON(ctx, s, KeySavedTabs, groups)
}

// LoadParentCategories reads the parentCategories collection.
func (s *Store) LoadParentCategories(ctx context.Context) ([]types.ParentCategory, error) {
	var cats []types.ParentCategory
	if err := getJSON(ctx, s, KeyParentCategories, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// SaveParentCategories writes the full parentCategories collection.
func (s *Store) SaveParentCategories(ctx context.Context, cats []types.ParentCategory) error {
	if cats == nil {
		cats = []types.ParentCategory{}
	}
	return putJSON(ctx, s, KeyParentCategories, cats)
}

// LoadSettings reads userSettings with defaults merged under stored
// overrides, so fields added later pick up their defaults on old data.
func (s *Store) LoadSettings(ctx context.Context) (types.UserSettings, error) {
	merged := types.DefaultSettings()
	var stored types.UserSettings
	if err := getJSON(ctx, s, KeySettings, &stored); err != nil {
		return merged, err
	}
	if stored.RemoveTabAfterOpen != nil {
		merged.RemoveTabAfterOpen = stored.RemoveTabAfterOpen
	}
	if stored.ExcludePatterns != nil {
		merged.ExcludePatterns = stored.ExcludePatterns
	}
	if stored.AutoDeletePeriod != "" {
		merged.AutoDeletePeriod = stored.AutoDeletePeriod
	}
	return merged, nil
}

// SaveSettings writes userSettings.
func (s *Store) SaveSettings(ctx context.Context, settings types.UserSettings) error {
	return putJSON(ctx, s, KeySettings, settings)
}
