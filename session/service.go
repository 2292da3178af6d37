package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mileusna/useragent"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionService struct {
	db     *gorm.DB
	config config.SessionConfig
	logger *logging.Service
	stop   chan struct{}
}

func NewSessionService(db *gorm.DB, cfg config.SessionConfig, logger *logging.Service) SessionService {
	return &sessionService{
		db:     db,
		config: cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (s *sessionService) Create(userID uint, ipAddress, userAgent string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := Session{
		ID:        id,
		UserID:    userID,
		LoggedIn:  true,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.config.MaxAge),
	}

	if err := s.db.Create(&session).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create session",
				zap.Error(err),
				zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("session created",
			zap.Uint("user_id", userID),
			zap.String("browser", BrowserInfo(userAgent)),
			zap.Time("expires_at", session.ExpiresAt))
	}

	return &session, nil
}

// ReadBySessionID checks expiry on read as well, so a request arriving
// between sweeps never sees a session past its TTL.
func (s *sessionService) ReadBySessionID(id string) (*Session, error) {
	var session Session
	err := s.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// Destroy is idempotent: removing an absent session is not an error.
func (s *sessionService) Destroy(sessionID string) error {
	result := s.db.Where("id = ?", sessionID).Delete(&Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to destroy session: %w", result.Error)
	}

	return nil
}

func (s *sessionService) DestroyByUserID(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to destroy user sessions: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("user sessions destroyed",
			zap.Uint("user_id", userID),
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}

func (s *sessionService) SweepExpired() error {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&Session{})
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to sweep expired sessions", zap.Error(result.Error))
		}
		return fmt.Errorf("failed to sweep expired sessions: %w", result.Error)
	}

	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("expired sessions swept", zap.Int64("count", result.RowsAffected))
	}

	return nil
}

// StartSweepWorker runs the periodic sweep off the request path.
func (s *sessionService) StartSweepWorker() {
	go func() {
		ticker := time.NewTicker(s.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.SweepExpired()
			case <-s.stop:
				return
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started session sweep worker",
			zap.Duration("interval", s.config.SweepInterval))
	}
}

func (s *sessionService) StopSweepWorker() {
	close(s.stop)
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func BrowserInfo(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Browser"
	}

	ua := useragent.Parse(userAgentString)
	if ua.Name == "" {
		return "Unknown Browser"
	}
	if ua.Version != "" {
		return ua.Name + " " + ua.Version
	}
	return ua.Name
}
