package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/auth"
	"github.com/pomclinic/intake/session"
)

// AuthHandler exposes the login/logout/refresh and password-reset flows.
// All decisions live in the auth service; this layer shuttles DTOs, cookies
// and status codes.
type AuthHandler struct {
	config  *config.Config
	auth    *auth.Service
	session session.SessionService
}

func NewAuthHandler(cfg *config.Config, authService *auth.Service, sessionService session.SessionService) *AuthHandler {
	return &AuthHandler{
		config:  cfg,
		auth:    authService,
		session: sessionService,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Email, Password Required"})
	}

	result, err := h.auth.Login(req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return respondError(c, err)
	}

	session.Login(c, result.User.ID, result.User.Email, result.Session.ID)

	setTokenCookies(c, &h.config.Token, result.AccessToken, result.RefreshToken)

	return c.JSON(http.StatusCreated, MessageResponse{
		Message: "Successfully logged in",
		Data:    result.User,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "User Id Required"})
	}

	if err := h.auth.Logout(uint(userID)); err != nil {
		return respondError(c, err)
	}

	session.Logout(c)
	clearTokenCookies(c, &h.config.Token)

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Refresh Token Required"})
	}

	accessToken, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Authenticate answers the SPA's "am I still logged in" probe from the
// cookie session. The route sits behind session.RequireAuth.
func (h *AuthHandler) Authenticate(c echo.Context) error {
	return c.JSON(http.StatusOK, AuthenticateResponse{
		UserID:        session.GetUserID(c),
		Email:         session.GetEmail(c),
		Authenticated: true,
	})
}

func (h *AuthHandler) GetSession(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Session Id Required"})
	}

	record, err := h.session.ReadBySessionID(sessionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: "Session Not Found"})
	}

	return c.JSON(http.StatusOK, record)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Email Required"})
	}

	result, err := h.auth.RequestReset(req.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{
		Message: "Password reset successfully requested",
		Data: ResetRequestedData{
			UserID:                 result.UserID,
			ResetPasswordToken:     result.Token,
			ResetPasswordExpiresAt: result.ExpiresAt,
		},
	})
}

// ValidateReset backs the reset page's pre-flight check; the token is not
// consumed.
func (h *AuthHandler) ValidateReset(c echo.Context) error {
	providedToken := c.QueryParam("token")
	userIDParam := c.QueryParam("userId")
	if providedToken == "" || userIDParam == "" {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Token Or UserId Required"})
	}

	userID, err := strconv.ParseUint(userIDParam, 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "User Id Required"})
	}

	if err := h.auth.ValidateReset(uint(userID), providedToken); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, true)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "New Password, User Id, Reset Password Token Required"})
	}

	if err := h.auth.CompleteReset(req.UserID, req.ResetPasswordToken, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}
