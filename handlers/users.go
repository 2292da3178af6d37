package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/password"
)

type UserHandler struct {
	accounts  *account.Service
	passwords *password.Service
}

func NewUserHandler(accounts *account.Service, passwords *password.Service) *UserHandler {
	return &UserHandler{
		accounts:  accounts,
		passwords: passwords,
	}
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.accounts.ReadAll()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	userID, err := parseUserID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "User Id Required"})
	}

	user, err := h.accounts.ReadByID(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Register answers 302 with the existing account when the email is already
// registered. A patient signing up twice gets pointed at their account
// instead of an error.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Email, Password Required"})
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, MessageResponse{Message: "External Server Error: Argon 2 Hashing"})
	}

	user, created, err := h.accounts.Register(req.Email, hash)
	if err != nil {
		return respondError(c, err)
	}

	if !created {
		return c.JSON(http.StatusFound, user)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	userID, err := parseUserID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "User Id Required"})
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "Email Or Password Required"})
	}

	hash := ""
	if req.Password != "" {
		hash, err = h.passwords.Hash(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, MessageResponse{Message: "External Server Error: Argon 2 Hashing"})
		}
	}

	user, err := h.accounts.Update(userID, req.Email, hash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	userID, err := parseUserID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, MessageResponse{Message: "User Id Required"})
	}

	if err := h.accounts.Delete(userID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
