package jwt

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/services/token"
)

const (
	UserIDKey = "_jwt_user_id"
	ClaimsKey = "_jwt_claims"
)

// RequireJWT guards a route behind a valid bearer access token.
func RequireJWT(tokenService *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Bearer token required")
			}

			claims, err := tokenService.Verify(tokenString)
			if err != nil {
				switch err {
				case token.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				case token.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed token")
				case token.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetUserID(c echo.Context) uint {
	if userID, ok := c.Get(UserIDKey).(uint); ok {
		return userID
	}
	return 0
}

func GetClaims(c echo.Context) *token.Claims {
	if claims, ok := c.Get(ClaimsKey).(*token.Claims); ok {
		return claims
	}
	return nil
}
