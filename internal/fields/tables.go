package fields

import "userservice-backend/internal/models"

// ProfileUpdate governs PUT /profile/{username} and the optional fields of
// internal profile creation. Username and timestamps are never client-writable.
var ProfileUpdate = New("profile", map[string]Rule{
	models.FieldDisplayName: {Kind: String},
	models.FieldEmail:       {Kind: String},
	models.FieldTimezone:    {Kind: String},
	models.FieldCountry:     {Kind: String},
})

// PreferencesUpdate governs PUT /preferences/{username}
var PreferencesUpdate = New("preferences", map[string]Rule{
	models.FieldDefaultOrderQty:     {Kind: Integer},
	models.FieldFavoriteSymbols:     {Kind: Sequence, Elem: String, Normalize: normalizeSymbols},
	models.FieldConfirmMarketOrders: {Kind: Boolean},
	models.FieldUIPreferences:       {Kind: Mapping},
	models.FieldRiskPreferences:     {Kind: Mapping},
})

// normalizeSymbols uppercases symbols and drops repeats, keeping first-seen order.
func normalizeSymbols(v any) any {
	items := v.([]any)
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		sym := models.NormalizeSymbol(item.(string))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
