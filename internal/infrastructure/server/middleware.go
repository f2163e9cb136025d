package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todo-reminder/internal/application/services"
)

// subjectKey is the echo context key holding the authenticated token subject
const subjectKey = "subject"

// authMiddleware validates bearer tokens. Health probes stay public.
func (s *Server) authMiddleware(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/api/health") {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", c.RealIP(), map[string]interface{}{
					"error":    err.Error(),
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(subjectKey, claims.Subject)
			return next(c)
		}
	}
}
