package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/config"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// setTokenCookies mirrors the token TTLs into http-only cookies so the SPA
// never has to touch the tokens from script.
func setTokenCookies(c echo.Context, cfg *config.TokenConfig, accessToken, refreshToken string) {
	c.SetCookie(tokenCookie(accessTokenCookie, accessToken, cfg.AccessExpiry, cfg.CookieSecure))
	c.SetCookie(tokenCookie(refreshTokenCookie, refreshToken, cfg.RefreshExpiry, cfg.CookieSecure))
}

func clearTokenCookies(c echo.Context, cfg *config.TokenConfig) {
	c.SetCookie(tokenCookie(accessTokenCookie, "", -time.Second, cfg.CookieSecure))
	c.SetCookie(tokenCookie(refreshTokenCookie, "", -time.Second, cfg.CookieSecure))
}

func tokenCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
