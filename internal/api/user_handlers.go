package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"userservice-backend/internal/database"
	"userservice-backend/internal/fields"
	"userservice-backend/internal/models"
)

// getProfileHandler handles GET /profile/:username
func (h *Handler) getProfileHandler(c echo.Context) error {
	ctx, cancel := h.opContext(c)
	defer cancel()

	profile, err := h.store.Profiles().Get(ctx, c.Param("username"))
	if errors.Is(err, database.ErrProfileNotFound) {
		return errorJSON(c, http.StatusNotFound, "User profile not found")
	}
	if err != nil {
		return h.internalError(c, "get profile", err)
	}

	return c.JSON(http.StatusOK, profile)
}

// updateProfileHandler handles PUT /profile/:username
func (h *Handler) updateProfileHandler(c echo.Context) error {
	payload, err := decodeObject(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "No data provided")
	}

	update, err := fields.ProfileUpdate.Apply(payload, h.now())
	if err != nil {
		return fieldError(c, err)
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	err = h.store.Profiles().Update(ctx, c.Param("username"), update)
	if errors.Is(err, database.ErrProfileNotFound) {
		return errorJSON(c, http.StatusNotFound, "User profile not found")
	}
	if err != nil {
		return h.internalError(c, "update profile", err)
	}

	return messageJSON(c, "Profile updated successfully")
}

// createProfileInternalHandler handles POST /profile/internal, called by the
// registration flow of other services.
func (h *Handler) createProfileInternalHandler(c echo.Context) error {
	payload, err := decodeObject(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Username is required")
	}

	username, ok := payload[models.FieldUsername].(string)
	if !ok || username == "" {
		return errorJSON(c, http.StatusBadRequest, "Username is required")
	}

	optional, err := fields.ProfileUpdate.Filter(payload)
	if err != nil {
		return fieldError(c, err)
	}

	ctx, cancel := h.opContext(c)
	defer cancel()

	profile, err := h.store.Profiles().Create(ctx, username, optional)
	if errors.Is(err, database.ErrProfileExists) {
		return errorJSON(c, http.StatusConflict, "User profile already exists")
	}
	if err != nil {
		return h.internalError(c, "create profile", err)
	}

	return c.JSON(http.StatusCreated, profile)
}

// fieldError maps a field policy rejection to a 400
func fieldError(c echo.Context, err error) error {
	var typeErr *fields.TypeError
	if errors.As(err, &typeErr) {
		return errorJSON(c, http.StatusBadRequest, "Invalid type for "+typeErr.Field)
	}
	if errors.Is(err, fields.ErrNoValidFields) {
		return errorJSON(c, http.StatusBadRequest, "No valid fields to update")
	}
	return errorJSON(c, http.StatusBadRequest, "Invalid request body")
}
