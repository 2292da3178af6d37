package handlers

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	NewPassword        string `json:"new_password"`
	UserID             uint   `json:"user_id"`
	ResetPasswordToken string `json:"reset_password_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type AuthenticateResponse struct {
	UserID        uint   `json:"userId"`
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

type ResetRequestedData struct {
	UserID                 uint      `json:"user_id"`
	ResetPasswordToken     string    `json:"reset_password_token"`
	ResetPasswordExpiresAt time.Time `json:"reset_password_token_expires_at"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
