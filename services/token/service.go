package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrSigningKey       = errors.New("signing key unavailable")
)

// Claims carried by access and refresh tokens. JTI is a fresh random id per
// issuance so two tokens for the same account are never byte-equal.
type Claims struct {
	UserID uint   `json:"user_id"`
	JTI    string `json:"jti"`
	jwt.RegisteredClaims
}

// Service signs bearer tokens with an RSA private key and verifies them
// against the paired public key, so downstream services can verify without
// holding the signing secret. Keys are loaded once at process start.
type Service struct {
	config     *config.TokenConfig
	logger     *logging.Service
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewService(cfg *config.TokenConfig, logger *logging.Service) (*Service, error) {
	privateKey, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		if logger != nil {
			logger.Error("failed to load token signing key",
				zap.Error(err),
				zap.String("path", cfg.PrivateKeyPath))
		}
		return nil, fmt.Errorf("%w: %v", ErrSigningKey, err)
	}

	publicKey := &privateKey.PublicKey
	if cfg.PublicKeyPath != "" {
		publicKey, err = loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			if logger != nil {
				logger.Error("failed to load token verification key",
					zap.Error(err),
					zap.String("path", cfg.PublicKeyPath))
			}
			return nil, fmt.Errorf("%w: %v", ErrSigningKey, err)
		}
	}

	return NewServiceWithKeys(cfg, logger, privateKey, publicKey), nil
}

// NewServiceWithKeys skips key-file loading; used by tests and by callers
// that manage key material themselves.
func NewServiceWithKeys(cfg *config.TokenConfig, logger *logging.Service, privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) *Service {
	if publicKey == nil && privateKey != nil {
		publicKey = &privateKey.PublicKey
	}
	return &Service{
		config:     cfg,
		logger:     logger,
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.RefreshExpiry
}

// Issue signs a token for userID expiring at now + ttl.
func (s *Service) Issue(userID uint, ttl time.Duration) (string, error) {
	if s.privateKey == nil {
		return "", ErrSigningKey
	}

	now := time.Now()
	jti := uuid.New().String()
	claims := Claims{
		UserID: userID,
		JTI:    jti,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{s.config.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign token", zap.Error(err))
		}
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) IssueAccessToken(userID uint) (string, error) {
	return s.Issue(userID, s.config.AccessExpiry)
}

func (s *Service) IssueRefreshToken(userID uint) (string, error) {
	return s.Issue(userID, s.config.RefreshExpiry)
}

// Verify checks the signature against the public key and rejects expired
// tokens. Signature failures surface as ErrInvalidSignature so callers can
// alert on them separately from ordinary expiry.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected algorithm: expected RS256, got %s", t.Method.Alg())
		}

		return s.publicKey, nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token verification failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(pemBytes)
}
