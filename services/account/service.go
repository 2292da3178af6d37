package account

import (
	"errors"
	"fmt"

	"github.com/pomclinic/intake/services/logging"
	"github.com/pomclinic/intake/services/tokenstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
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

// Register creates an account for a normalized email and pre-hashed
// password. When the email is already registered the existing account is
// returned unchanged with created=false; an intake patient may try to sign
// up again with the same address.
func (s *Service) Register(email, passwordHash string) (*User, bool, error) {
	normalized := NormalizeEmail(email)

	existing, err := s.ReadByEmail(normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user := User{
		Email:    normalized,
		Password: passwordHash,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, readErr := s.ReadByEmail(normalized)
			if readErr != nil {
				return nil, false, readErr
			}
			return existing, false, nil
		}
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	}

	return &user, true, nil
}

func (s *Service) ReadAll() ([]User, error) {
	var users []User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func (s *Service) ReadByID(userID uint) (*User, error) {
	var user User
	err := s.db.First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user: %w", err)
	}

	return &user, nil
}

func (s *Service) ReadByEmail(email string) (*User, error) {
	var user User
	err := s.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user by email: %w", err)
	}

	return &user, nil
}

// Update merges non-empty fields. The password argument must already be
// hashed by the credential verifier.
func (s *Service) Update(userID uint, email, passwordHash string) (*User, error) {
	user, err := s.ReadByID(userID)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{}
	if email != "" {
		columns["email"] = NormalizeEmail(email)
	}
	if passwordHash != "" {
		columns["password"] = passwordHash
	}

	if len(columns) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(columns).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		if s.logger != nil {
			s.logger.Error("failed to update user",
				zap.Error(err),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.ReadByID(userID)
}

// Delete removes the account and cascades its token record in one
// transaction, so a failure never strands a token row. Sessions are
// time-driven and left to the sweep.
func (s *Service) Delete(userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&User{}, userID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		if err := tx.Where("user_id = ?", userID).Delete(&tokenstore.UserToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete token record: %w", err)
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) && s.logger != nil {
			s.logger.Error("failed to delete user",
				zap.Error(err),
				zap.Uint("user_id", userID))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Info("user deleted", zap.Uint("user_id", userID))
	}

	return nil
}
