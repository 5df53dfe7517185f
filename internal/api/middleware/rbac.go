package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitalmed/staff-registry/internal/api/metrics"
	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// RequirePermission gates a route on a single permission string. The role is
// taken from the context set by Auth; roles outside the known set carry the
// least-privilege permission set, so they fail every check a plain account
// would fail.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if !domain.HasPermission(role, permission) {
				metrics.PermissionDenialsTotal.WithLabelValues(permission).Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
