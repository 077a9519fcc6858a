package models

import "time"

// Profile field names as persisted and exchanged over JSON
const (
	FieldUsername    = "username"
	FieldDisplayName = "display_name"
	FieldEmail       = "email"
	FieldTimezone    = "timezone"
	FieldCountry     = "country"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// DefaultTimezone is assigned to profiles created without one
const DefaultTimezone = "UTC"

// Profile holds the per-user identity fields. Username and CreatedAt are
// set once at creation.
type Profile struct {
	Username    string    `json:"username" bson:"username"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Email       string    `json:"email" bson:"email"`
	Timezone    string    `json:"timezone" bson:"timezone"`
	Country     string    `json:"country" bson:"country"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NewProfile builds a profile for username, taking display_name, email,
// timezone and country from fields when present and defaulting the rest.
// Values in fields are expected to be strings already checked by the
// profile field policy; anything else falls back to the default.
func NewProfile(username string, fields map[string]any, now time.Time) *Profile {
	str := func(key, def string) string {
		if v, ok := fields[key].(string); ok {
			return v
		}
		return def
	}

	return &Profile{
		Username:    username,
		DisplayName: str(FieldDisplayName, username),
		Email:       str(FieldEmail, ""),
		Timezone:    str(FieldTimezone, DefaultTimezone),
		Country:     str(FieldCountry, ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
