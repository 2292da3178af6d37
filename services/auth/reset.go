package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/tokenstore"
	"go.uber.org/zap"
)

// ResetNotification is the payload handed to the mail collaborator. The raw
// token only appears inside the reset URL and is never logged.
type ResetNotification struct {
	UserID   uint
	Name     string
	Email    string
	ResetURL string
}

// ResetRequest is what RequestReset returns to the caller.
type ResetRequest struct {
	UserID    uint
	Email     string
	Token     string
	ExpiresAt time.Time
	ResetURL  string
}

// RequestReset generates a single-use reset token for the account behind
// email and upserts it into the reset sub-record of the token row. The live
// access/refresh pair is untouched unless ClearTokensOnResetRequest forces a
// re-login.
//
// An unknown email fails with BadRequest rather than a generic success;
// the deployed API reveals account existence here and clients rely on it.
func (s *Service) RequestReset(email string) (*ResetRequest, error) {
	if email == "" {
		return nil, BadRequest("email")
	}

	user, err := s.accounts.ReadByEmail(email)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			return nil, BadRequest("email")
		}
		return nil, Internal("read user account", err)
	}

	resetToken, err := generateResetToken(s.config.Token.ResetLength)
	if err != nil {
		return nil, Internal("create reset token", err)
	}

	expiresAt := time.Now().Add(s.config.Token.ResetExpiry)
	if _, err := s.store.UpdateResetToken(user.ID, &resetToken, &expiresAt); err != nil {
		return nil, Internal("update reset token", err)
	}

	if s.config.Token.ClearTokensOnResetRequest {
		if err := s.store.ClearTokens(user.ID); err != nil {
			return nil, Internal("clear token pair", err)
		}
	}

	resetURL := fmt.Sprintf("%s/password/reset?token=%s&userId=%d",
		s.config.App.ClientURL, resetToken, user.ID)

	if s.mail != nil {
		notification := ResetNotification{
			UserID:   user.ID,
			Email:    user.Email,
			Name:     "Patient",
			ResetURL: resetURL,
		}
		if err := s.mail.SendPasswordResetRequested(notification); err != nil && s.logger != nil {
			s.logger.Error("failed to send reset-requested email",
				zap.Error(err),
				zap.Uint("user_id", user.ID))
		}
	}

	if s.logger != nil {
		s.logger.Info("password reset requested",
			zap.Uint("user_id", user.ID),
			zap.Time("expires_at", expiresAt))
	}

	return &ResetRequest{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     resetToken,
		ExpiresAt: expiresAt,
		ResetURL:  resetURL,
	}, nil
}

// ValidateReset checks a provided reset token without consuming it; the
// password-reset page probes validity before showing the form.
func (s *Service) ValidateReset(userID uint, providedToken string) error {
	if providedToken == "" {
		return BadRequest("token")
	}

	record, err := s.store.ReadByUserID(userID)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenRecordNotFound) {
			return NotFound("token")
		}
		return Internal("read token record", err)
	}

	if record.ResetToken == "" {
		return NotFound("user token")
	}

	if record.ResetTokenExpiresAt == nil || time.Now().After(*record.ResetTokenExpiresAt) {
		return BadRequest("expired token")
	}

	if !constantTimeEqual(record.ResetToken, providedToken) {
		if s.logger != nil {
			s.logger.Warn("reset token mismatch", zap.Uint("user_id", userID))
		}
		return BadRequest("token")
	}

	return nil
}

// CompleteReset consumes a valid reset token: the password hash is replaced
// and the reset sub-record is cleared, leaving the access/refresh pair
// byte-identical to its pre-reset state.
func (s *Service) CompleteReset(userID uint, providedToken, newPassword string) error {
	if newPassword == "" {
		return BadRequest("new password")
	}

	if _, err := s.accounts.ReadByID(userID); err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			return NotFound("user")
		}
		return Internal("read user account", err)
	}

	if err := s.ValidateReset(userID, providedToken); err != nil {
		return err
	}

	passwordHash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return External("argon2 hashing", err)
	}

	user, err := s.accounts.Update(userID, "", passwordHash)
	if err != nil {
		return Internal("update password", err)
	}

	if _, err := s.store.UpdateResetToken(userID, nil, nil); err != nil {
		return Internal("clear reset token", err)
	}

	if s.mail != nil {
		notification := ResetNotification{
			UserID: user.ID,
			Email:  user.Email,
			Name:   "Patient",
		}
		if err := s.mail.SendPasswordResetCompleted(notification); err != nil && s.logger != nil {
			s.logger.Error("failed to send reset-completed email",
				zap.Error(err),
				zap.Uint("user_id", user.ID))
		}
	}

	if s.logger != nil {
		s.logger.Info("password reset completed", zap.Uint("user_id", userID))
	}

	return nil
}

func generateResetToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// constantTimeEqual short-circuits on unequal length (a different-length
// token is never valid) and otherwise compares without leaking the position
// of the first mismatching byte.
func constantTimeEqual(stored, provided string) bool {
	if len(stored) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
