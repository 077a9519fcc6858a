package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"userservice-backend/internal/models"
)

// PreferencesRepo stores each user's preferences as one JSON document
type PreferencesRepo struct {
	db *sql.DB
}

// Get returns the stored preferences overlaid on the defaults, or the
// defaults alone when nothing is stored. It never writes.
func (r *PreferencesRepo) Get(ctx context.Context, username string) (*models.Preferences, error) {
	var document string
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM user_preferences WHERE username = ?", username,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(username), nil
	}
	if err != nil {
		return nil, err
	}

	prefs := models.BlankPreferences(username)
	if err := json.Unmarshal([]byte(document), prefs); err != nil {
		return nil, fmt.Errorf("preferences %s: %w", username, err)
	}
	prefs.FillDefaults()
	return prefs, nil
}

// Update merges fields into the document, creating it if needed
func (r *PreferencesRepo) Update(ctx context.Context, username string, fields map[string]any) error {
	return r.modify(ctx, username, true, func(doc map[string]any) {
		for k, v := range fields {
			doc[k] = v
		}
	})
}

// AddFavorite adds a symbol to the favorites set, creating the document if needed
func (r *PreferencesRepo) AddFavorite(ctx context.Context, username, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)
	return r.modify(ctx, username, true, func(doc map[string]any) {
		favorites := symbolList(doc[models.FieldFavoriteSymbols])
		for _, s := range favorites {
			if s == symbol {
				doc[models.FieldFavoriteSymbols] = favorites
				doc[models.FieldUpdatedAt] = utcNow()
				return
			}
		}
		doc[models.FieldFavoriteSymbols] = append(favorites, symbol)
		doc[models.FieldUpdatedAt] = utcNow()
	})
}

// RemoveFavorite removes a symbol from the favorites set if present
func (r *PreferencesRepo) RemoveFavorite(ctx context.Context, username, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)
	return r.modify(ctx, username, false, func(doc map[string]any) {
		favorites := symbolList(doc[models.FieldFavoriteSymbols])
		kept := make([]string, 0, len(favorites))
		for _, s := range favorites {
			if s != symbol {
				kept = append(kept, s)
			}
		}
		doc[models.FieldFavoriteSymbols] = kept
		doc[models.FieldUpdatedAt] = utcNow()
	})
}

// modify loads the document, applies fn and writes it back in one
// transaction. Without upsert a missing document is ErrPreferencesNotFound.
func (r *PreferencesRepo) modify(ctx context.Context, username string, upsert bool, fn func(map[string]any)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	doc := map[string]any{}
	var document string
	err = tx.QueryRowContext(ctx,
		"SELECT document FROM user_preferences WHERE username = ?", username,
	).Scan(&document)
	switch {
	case err == sql.ErrNoRows:
		if !upsert {
			return ErrPreferencesNotFound
		}
	case err != nil:
		return err
	default:
		if err := json.Unmarshal([]byte(document), &doc); err != nil {
			return fmt.Errorf("preferences %s: %w", username, err)
		}
	}

	fn(doc)
	doc[models.FieldUsername] = username

	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_preferences (username, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, username, string(encoded), formatTime(utcNow()))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func symbolList(v any) []string {
	var out []string
	switch items := v.(type) {
	case []string:
		out = append(out, items...)
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
