package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps profiles and preferences in an embedded SQLite database.
// It serves local development and tests; production uses MongoStore.
type SQLiteStore struct {
	db          *sql.DB
	profiles    *ProfileRepo
	preferences *PreferencesRepo
}

// SQLiteConfig holds SQLite settings. Path ":memory:" opens a private
// in-memory database.
type SQLiteConfig struct {
	Path string
}

// OpenSQLite opens the database and runs migrations
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes the read-modify-write merges below and keeps
	// an in-memory database alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Run migrations
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		profiles:    &ProfileRepo{db: db},
		preferences: &PreferencesRepo{db: db},
	}, nil
}

func (s *SQLiteStore) Profiles() ProfileStore        { return s.profiles }
func (s *SQLiteStore) Preferences() PreferenceStore { return s.preferences }

// Ping checks the connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	// Create migrations table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Run each migration
	for _, m := range migrations {
		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}

	return nil
}

type migration struct {
	name string
	up   string
}

func runMigration(db *sql.DB, m migration) error {
	// Check if already applied
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", m.name).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // Already applied
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.up); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", m.name); err != nil {
		return err
	}
	return tx.Commit()
}

var migrations = []migration{
	{
		name: "001_create_user_profiles",
		up: `
			CREATE TABLE user_profiles (
				username TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				timezone TEXT NOT NULL DEFAULT 'UTC',
				country TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
		`,
	},
	{
		name: "002_create_user_preferences",
		up: `
			CREATE TABLE user_preferences (
				username TEXT PRIMARY KEY,
				document TEXT NOT NULL DEFAULT '{}',
				updated_at TEXT NOT NULL
			);
		`,
	},
}

// Timestamps are stored as RFC 3339 text so they sort and round-trip exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}
