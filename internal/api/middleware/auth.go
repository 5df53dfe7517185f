package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vitalmed/staff-registry/internal/api/metrics"
	"github.com/vitalmed/staff-registry/internal/core/ports"
	"github.com/vitalmed/staff-registry/internal/core/service"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUserID    = "user_id"
	ContextRole      = "role"
	ContextSessionID = "session_id"
)

// Auth validates the bearer token and checks that its session is still live
// in the registry, so revoked tokens die before their JWT expiry. On success
// it injects the caller's identity into the echo context.
func Auth(tokens *service.TokenManager, sessions ports.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			// A signature-valid token is not enough: the session it was
			// issued under must still exist. Logout, deactivation, and
			// password resets all remove it.
			if _, err := sessions.Get(c.Request().Context(), claims.ID); err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("revoked").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextSessionID, claims.ID)

			return next(c)
		}
	}
}
