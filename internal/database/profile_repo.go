package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"userservice-backend/internal/models"
)

// profileColumns are the columns an update may touch
var profileColumns = map[string]bool{
	models.FieldDisplayName: true,
	models.FieldEmail:       true,
	models.FieldTimezone:    true,
	models.FieldCountry:     true,
	models.FieldUpdatedAt:   true,
}

// ProfileRepo handles profile rows in SQLite
type ProfileRepo struct {
	db *sql.DB
}

// Get retrieves a profile by username
func (r *ProfileRepo) Get(ctx context.Context, username string) (*models.Profile, error) {
	profile := &models.Profile{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT username, display_name, email, timezone, country, created_at, updated_at
		FROM user_profiles WHERE username = ?
	`, username).Scan(
		&profile.Username, &profile.DisplayName, &profile.Email,
		&profile.Timezone, &profile.Country, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if profile.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("profile %s created_at: %w", username, err)
	}
	if profile.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("profile %s updated_at: %w", username, err)
	}

	return profile, nil
}

// Create inserts a new profile. The primary key on username rejects a
// duplicate even when two creates race.
func (r *ProfileRepo) Create(ctx context.Context, username string, fields map[string]any) (*models.Profile, error) {
	profile := models.NewProfile(username, fields, utcNow())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (username, display_name, email, timezone, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, profile.Username, profile.DisplayName, profile.Email, profile.Timezone, profile.Country,
		formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	return profile, nil
}

// Update sets the given columns on an existing profile
func (r *ProfileRepo) Update(ctx context.Context, username string, fields map[string]any) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !profileColumns[name] {
			return fmt.Errorf("unknown profile field %q", name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return errors.New("no profile fields to update")
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		value := fields[name]
		if t, ok := value.(time.Time); ok {
			value = formatTime(t)
		}
		args = append(args, value)
	}
	args = append(args, username)

	result, err := r.db.ExecContext(ctx,
		"UPDATE user_profiles SET "+strings.Join(sets, ", ")+" WHERE username = ?",
		args...,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	// Without extended result codes only the primary class is reported.
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT
}
