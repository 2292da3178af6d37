package tokenstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTokenRecordNotFound = errors.New("token record not found")
	ErrConflict            = errors.New("token record already exists for account")
)

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

func (s *Service) ReadByUserID(userID uint) (*UserToken, error) {
	var record UserToken
	err := s.db.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRecordNotFound
		}
		if s.logger != nil {
			s.logger.Error("failed to read token record",
				zap.Error(err),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to read token record: %w", err)
	}

	return &record, nil
}

// ReadByRefreshToken resolves a refresh token back to its owning account so
// the refresh flow never has to trust a client-supplied user id.
func (s *Service) ReadByRefreshToken(refreshToken string) (*UserToken, error) {
	var record UserToken
	err := s.db.Where("refresh_token = ?", refreshToken).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRecordNotFound
		}
		if s.logger != nil {
			s.logger.Error("failed to read token record by refresh token", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to read token record: %w", err)
	}

	return &record, nil
}

// Create inserts the row for an account that has none. The unique index on
// user_id is what enforces the at-most-one invariant under concurrent
// logins; a losing insert surfaces as ErrConflict, never a second row.
func (s *Service) Create(userID uint, accessToken, refreshToken string, accessExpiresAt, refreshExpiresAt time.Time) (*UserToken, error) {
	record := UserToken{
		UserID:                userID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  &accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: &refreshExpiresAt,
	}

	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if s.logger != nil {
				s.logger.Warn("duplicate token record create",
					zap.Uint("user_id", userID))
			}
			return nil, ErrConflict
		}
		if s.logger != nil {
			s.logger.Error("failed to create token record",
				zap.Error(err),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to create token record: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("token record created",
			zap.Uint("user_id", userID),
			zap.Time("access_expires_at", accessExpiresAt),
			zap.Time("refresh_expires_at", refreshExpiresAt))
	}

	return &record, nil
}

// UpdateTokens merges the supplied access/refresh fields into the existing
// row. Reset-token columns are never part of the update.
func (s *Service) UpdateTokens(userID uint, update TokenPairUpdate) (*UserToken, error) {
	columns := map[string]any{}
	if update.AccessToken != nil {
		columns["access_token"] = *update.AccessToken
	}
	if update.AccessTokenExpiresAt != nil {
		columns["access_token_expires_at"] = *update.AccessTokenExpiresAt
	}
	if update.RefreshToken != nil {
		columns["refresh_token"] = *update.RefreshToken
	}
	if update.RefreshTokenExpiresAt != nil {
		columns["refresh_token_expires_at"] = *update.RefreshTokenExpiresAt
	}

	if len(columns) == 0 {
		return s.ReadByUserID(userID)
	}

	result := s.db.Model(&UserToken{}).Where("user_id = ?", userID).Updates(columns)
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to update token pair",
				zap.Error(result.Error),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to update token pair: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrTokenRecordNotFound
	}

	return s.ReadByUserID(userID)
}

// UpdateResetToken sets or clears the reset-token columns only. The live
// access/refresh pair is left byte-identical; if no row exists yet one is
// created holding just the reset fields.
func (s *Service) UpdateResetToken(userID uint, resetToken *string, expiresAt *time.Time) (*UserToken, error) {
	columns := map[string]any{
		"reset_token":            "",
		"reset_token_expires_at": nil,
	}
	if resetToken != nil {
		columns["reset_token"] = *resetToken
	}
	if expiresAt != nil {
		columns["reset_token_expires_at"] = *expiresAt
	}

	result := s.db.Model(&UserToken{}).Where("user_id = ?", userID).Updates(columns)
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to update reset token",
				zap.Error(result.Error),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to update reset token: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		record := UserToken{UserID: userID}
		if resetToken != nil {
			record.ResetToken = *resetToken
		}
		record.ResetTokenExpiresAt = expiresAt

		if err := s.db.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent login; retry as an update.
				return s.UpdateResetToken(userID, resetToken, expiresAt)
			}
			if s.logger != nil {
				s.logger.Error("failed to create reset token record",
					zap.Error(err),
					zap.Uint("user_id", userID))
			}
			return nil, fmt.Errorf("failed to create reset token record: %w", err)
		}
		return &record, nil
	}

	return s.ReadByUserID(userID)
}

// ClearTokens empties the access/refresh columns without touching the reset
// pair. Used by the reset-request policy that forces a full re-login.
func (s *Service) ClearTokens(userID uint) error {
	err := s.db.Model(&UserToken{}).Where("user_id = ?", userID).Updates(map[string]any{
		"access_token":             "",
		"access_token_expires_at":  nil,
		"refresh_token":            "",
		"refresh_token_expires_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to clear token pair: %w", err)
	}

	return nil
}

func (s *Service) Delete(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&UserToken{})
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to delete token record",
				zap.Error(result.Error),
				zap.Uint("user_id", userID))
		}
		return fmt.Errorf("failed to delete token record: %w", result.Error)
	}

	if s.logger != nil {
		s.logger.Info("token record deleted",
			zap.Uint("user_id", userID),
			zap.Int64("affected_rows", result.RowsAffected))
	}

	return nil
}
