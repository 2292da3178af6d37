package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/auth"
)

// respondError maps the auth failure taxonomy onto status codes. Untyped
// errors collapse to a 500 without leaking internals.
func respondError(c echo.Context, err error) error {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return c.JSON(statusFor(authErr.Kind), MessageResponse{Message: authErr.Message()})
	}

	if errors.Is(err, account.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: "User Not Found"})
	}

	if errors.Is(err, account.ErrEmailTaken) {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Bad Request: Email Already Registered"})
	}

	return c.JSON(http.StatusInternalServerError, MessageResponse{Message: "Internal Server Error"})
}

func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindBadRequest:
		return http.StatusBadRequest
	case auth.KindUnauthorized:
		return http.StatusUnauthorized
	case auth.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
