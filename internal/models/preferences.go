package models

import (
	"strings"
	"time"
)

// Preference field names as persisted and exchanged over JSON
const (
	FieldDefaultOrderQty     = "default_order_qty"
	FieldFavoriteSymbols     = "favorite_symbols"
	FieldConfirmMarketOrders = "confirm_market_orders"
	FieldUIPreferences       = "ui_preferences"
	FieldRiskPreferences     = "risk_preferences"
)

// DefaultOrderQty is the order size used until the user picks one
const DefaultOrderQty = 100

// Preferences holds trading preferences for a user. A document only exists
// after the first write; reads of a missing document see DefaultPreferences.
type Preferences struct {
	Username            string         `json:"username" bson:"username"`
	DefaultOrderQty     int64          `json:"default_order_qty" bson:"default_order_qty"`
	FavoriteSymbols     []string       `json:"favorite_symbols" bson:"favorite_symbols"`
	ConfirmMarketOrders bool           `json:"confirm_market_orders" bson:"confirm_market_orders"`
	UIPreferences       map[string]any `json:"ui_preferences" bson:"ui_preferences"`
	RiskPreferences     map[string]any `json:"risk_preferences" bson:"risk_preferences"`
	UpdatedAt           *time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// DefaultPreferences returns the preferences reported for a user that has
// never saved any.
func DefaultPreferences(username string) *Preferences {
	return &Preferences{
		Username:            username,
		DefaultOrderQty:     DefaultOrderQty,
		FavoriteSymbols:     []string{},
		ConfirmMarketOrders: true,
		UIPreferences:       defaultUIPreferences(),
		RiskPreferences:     defaultRiskPreferences(),
	}
}

// BlankPreferences is the decode target for a stored document: scalar
// defaults are pre-set so fields missing from the document keep them, while
// the mappings are left nil for FillDefaults.
func BlankPreferences(username string) *Preferences {
	return &Preferences{
		Username:            username,
		DefaultOrderQty:     DefaultOrderQty,
		ConfirmMarketOrders: true,
	}
}

// FillDefaults fills in collection fields that a stored document never set.
func (p *Preferences) FillDefaults() {
	if p.FavoriteSymbols == nil {
		p.FavoriteSymbols = []string{}
	}
	if p.UIPreferences == nil {
		p.UIPreferences = defaultUIPreferences()
	}
	if p.RiskPreferences == nil {
		p.RiskPreferences = defaultRiskPreferences()
	}
}

func defaultUIPreferences() map[string]any {
	return map[string]any{
		"dark_mode": false,
		"layout":    "default",
	}
}

func defaultRiskPreferences() map[string]any {
	return map[string]any{
		"soft_limit_warning": true,
		"max_position_size":  10000,
	}
}

// NormalizeSymbol returns the canonical form of an instrument symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
