package api

import (
	"github.com/labstack/echo/v4"

	"userservice-backend/internal/auth"
)

// RegisterRoutes sets up all routes
func RegisterRoutes(e *echo.Echo, h *Handler, gate *auth.Gate) {
	// Health check (public)
	e.GET("/health", h.healthCheck)

	// Metrics (public)
	if h.metrics != nil {
		e.GET("/metrics", h.metrics.Handler())
	}

	// Internal routes (service key, no user identity)
	e.POST("/profile/internal", h.createProfileInternalHandler, gate.Service())

	// Profile routes (owner only)
	profile := e.Group("/profile/:username", gate.User("username"))
	profile.GET("", h.getProfileHandler)
	profile.PUT("", h.updateProfileHandler)

	// Preferences routes (owner only)
	prefs := e.Group("/preferences/:username", gate.User("username"))
	prefs.GET("", h.getPreferencesHandler)
	prefs.PUT("", h.updatePreferencesHandler)
	prefs.POST("/favorites", h.addFavoriteHandler)
	prefs.DELETE("/favorites/:symbol", h.removeFavoriteHandler)
}
