package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"userservice-backend/internal/database"
	"userservice-backend/internal/fields"
	"userservice-backend/internal/models"
)

const fieldSymbol = "symbol"

// getPreferencesHandler handles GET /preferences/:username. Users that never
// saved preferences get the defaults.
func (h *Handler) getPreferencesHandler(c echo.Context) error {
	ctx, cancel := h.opContext(c)
	defer cancel()

	prefs, err := h.store.Preferences().Get(ctx, c.Param("username"))
	if err != nil {
		return h.internalError(c, "get preferences", err)
	}

	return c.JSON(http.StatusOK, prefs)
}

// updatePreferencesHandler handles PUT /preferences/:username
func (h *Handler) updatePreferencesHandler(c echo.Context) error {
	payload, err := decodeObject(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No data provided")
	}

	update, err := fields.PreferencesUpdate.Apply(payload, h.now())
	if err != nil {
		return fieldError(c, err)
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	if err := h.store.Preferences().Update(ctx, c.Param("username"), update); err != nil {
		return h.internalError(c, "update preferences", err)
	}

	return messageJSON(c, "Preferences updated successfully")
}

// addFavoriteHandler handles POST /preferences/:username/favorites
func (h *Handler) addFavoriteHandler(c echo.Context) error {
	payload, err := decodeObject(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Symbol is required")
	}

	raw, present := payload[fieldSymbol]
	if !present {
		return errorJSON(c, http.StatusBadRequest, "Symbol is required")
	}
	symbol, ok := raw.(string)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid type for "+fieldSymbol)
	}
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return errorJSON(c, http.StatusBadRequest, "Symbol is required")
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	if err := h.store.Preferences().AddFavorite(ctx, c.Param("username"), symbol); err != nil {
		return h.internalError(c, "add favorite", err)
	}

	return messageJSON(c, fmt.Sprintf("Symbol %s added to favorites", symbol))
}

// removeFavoriteHandler handles DELETE /preferences/:username/favorites/:symbol
func (h *Handler) removeFavoriteHandler(c echo.Context) error {
	symbol := models.NormalizeSymbol(c.Param(fieldSymbol))

	ctx, cancel := h.opContext(c)
	defer cancel()

	err := h.store.Preferences().RemoveFavorite(ctx, c.Param("username"), symbol)
	if errors.Is(err, database.ErrPreferencesNotFound) {
		return errorJSON(c, http.StatusNotFound, "User preferences not found")
	}
	if err != nil {
		return h.internalError(c, "remove favorite", err)
	}

	return messageJSON(c, fmt.Sprintf("Symbol %s removed from favorites", symbol))
}
