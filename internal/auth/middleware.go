package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContextKeyUsername holds the authenticated username in the echo context
const ContextKeyUsername = "username"

// Gate applies the per-route authorization policies
type Gate struct {
	tokens   *TokenVerifier
	services *ServiceKeyVerifier
}

// NewGate creates a gate from the two verifiers
func NewGate(tokens *TokenVerifier, services *ServiceKeyVerifier) *Gate {
	return &Gate{tokens: tokens, services: services}
}

// User requires a valid bearer token. When the route binds param, the
// token's identity must equal it; a mismatch is 403, a missing or invalid
// token is 401.
func (g *Gate) User(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, ok := g.tokens.Verify(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized - Invalid or missing token",
				})
			}

			if param != "" {
				if target := c.Param(param); target != "" && target != username {
					return c.JSON(http.StatusForbidden, map[string]string{
						"error": "Forbidden - Cannot access other user's data",
					})
				}
			}

			c.Set(ContextKeyUsername, username)
			return next(c)
		}
	}
}

// Service requires the internal service key. No identity is established.
func (g *Gate) Service() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.services.Verify(c.Request().Header.Get(ServiceKeyHeader)) {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized - Invalid service key",
				})
			}
			return next(c)
		}
	}
}

// GetUsernameFromContext retrieves the authenticated username
func GetUsernameFromContext(c echo.Context) string {
	username, _ := c.Get(ContextKeyUsername).(string)
	return username
}
