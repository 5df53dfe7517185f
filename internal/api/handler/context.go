package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitalmed/staff-registry/internal/api/middleware"
)

// ctxIdentity extracts the caller identity injected by the Auth middleware
// and performs a fast-fail check before any service call: a non-empty user
// id proves the middleware ran. Handlers on authenticated routes must not
// be reachable without it.
func ctxIdentity(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get(middleware.ContextRole).(string)
	return userID, role, nil
}

// ctxSessionID returns the registry id of the bearer token in flight.
func ctxSessionID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextSessionID).(string)
	return id
}
