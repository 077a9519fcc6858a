package database

import (
	"context"
	"errors"
	"time"

	"userservice-backend/internal/models"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrPreferencesNotFound = errors.New("preferences not found")
)

// Collection names, shared by every backend
const (
	ProfilesCollection    = "user_profiles"
	PreferencesCollection = "user_preferences"
)

// ProfileStore handles profile documents, one per username
type ProfileStore interface {
	// Get returns ErrProfileNotFound when no document exists.
	Get(ctx context.Context, username string) (*models.Profile, error)
	// Create builds and inserts a new profile from fields, applying defaults.
	// It returns ErrProfileExists if the username is taken, including when a
	// concurrent create wins the race.
	Create(ctx context.Context, username string, fields map[string]any) (*models.Profile, error)
	// Update merges fields into an existing profile. It never creates one.
	Update(ctx context.Context, username string, fields map[string]any) error
}

// PreferenceStore handles preference documents, lazily created on first write
type PreferenceStore interface {
	// Get returns the stored preferences or the defaults, without writing.
	Get(ctx context.Context, username string) (*models.Preferences, error)
	// Update merges fields, creating the document if needed.
	Update(ctx context.Context, username string, fields map[string]any) error
	// AddFavorite adds symbol to the favorites set, creating the document if needed.
	AddFavorite(ctx context.Context, username, symbol string) error
	// RemoveFavorite removes symbol if present. It returns
	// ErrPreferencesNotFound when the user has no document at all.
	RemoveFavorite(ctx context.Context, username, symbol string) error
}

// Store is a document store backend
type Store interface {
	Profiles() ProfileStore
	Preferences() PreferenceStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func utcNow() time.Time {
	return time.Now().UTC()
}
