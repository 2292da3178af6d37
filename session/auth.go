package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	UserIDKey        = "_user_id"
	EmailKey         = "_email"
	SessionIDKey     = "_session_id"
	AuthenticatedKey = "_authenticated"
)

// Login stamps the cookie session for an authenticated account. The durable
// Session record is created by the auth service; sessionID ties the cookie
// back to it.
func Login(c echo.Context, userID uint, email, sessionID string) {
	manager := GetManager(c)
	if manager == nil {
		return
	}

	ctx := c.Request().Context()
	manager.Put(ctx, UserIDKey, userID)
	manager.Put(ctx, EmailKey, email)
	manager.Put(ctx, AuthenticatedKey, true)
	manager.Put(ctx, SessionIDKey, sessionID)
}

// Logout destroys both sides: the durable record and the cookie session.
func Logout(c echo.Context) {
	manager := GetManager(c)
	if manager == nil {
		return
	}

	ctx := c.Request().Context()

	if service := GetSessionService(c); service != nil {
		if sessionID := manager.GetString(ctx, SessionIDKey); sessionID != "" {
			_ = service.Destroy(sessionID)
		}
	}

	manager.Remove(ctx, UserIDKey)
	manager.Remove(ctx, EmailKey)
	manager.Remove(ctx, AuthenticatedKey)
	manager.Remove(ctx, SessionIDKey)
	_ = manager.Destroy(ctx)
}

func GetUserID(c echo.Context) uint {
	manager := GetManager(c)
	if manager == nil {
		return 0
	}

	switch v := manager.Get(c.Request().Context(), UserIDKey).(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case float64:
		return uint(v)
	default:
		return 0
	}
}

func GetEmail(c echo.Context) string {
	manager := GetManager(c)
	if manager == nil {
		return ""
	}
	return manager.GetString(c.Request().Context(), EmailKey)
}

func IsAuthenticated(c echo.Context) bool {
	manager := GetManager(c)
	if manager == nil {
		return false
	}
	return manager.GetBool(c.Request().Context(), AuthenticatedKey)
}

// RequireAuth guards a route behind a live cookie session.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid Session")
			}
			return next(c)
		}
	}
}
