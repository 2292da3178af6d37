package auth

import (
	"errors"
	"time"

	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/logging"
	"github.com/pomclinic/intake/services/password"
	"github.com/pomclinic/intake/services/token"
	"github.com/pomclinic/intake/services/tokenstore"
	"github.com/pomclinic/intake/session"
	"go.uber.org/zap"
)

// MailService receives assembled notification payloads. The orchestrator
// never sends email itself.
type MailService interface {
	SendPasswordResetRequested(n ResetNotification) error
	SendPasswordResetCompleted(n ResetNotification) error
}

// Service coordinates the credential verifier, token issuer, token store and
// session store for login, logout and token refresh. All collaborators are
// injected at construction; there is no ambient state.
type Service struct {
	config    *config.Config
	accounts  *account.Service
	passwords *password.Service
	tokens    *token.Service
	store     *tokenstore.Service
	sessions  session.SessionService
	mail      MailService
	logger    *logging.Service
}

func NewService(
	cfg *config.Config,
	accounts *account.Service,
	passwords *password.Service,
	tokens *token.Service,
	store *tokenstore.Service,
	sessions session.SessionService,
	logger *logging.Service,
) *Service {
	return &Service{
		config:    cfg,
		accounts:  accounts,
		passwords: passwords,
		tokens:    tokens,
		store:     store,
		sessions:  sessions,
		logger:    logger,
	}
}

func (s *Service) SetMailService(mail MailService) {
	s.mail = mail
}

// LoginResult carries what the HTTP layer needs to set cookies and answer
// the client; this service writes no HTTP state itself.
type LoginResult struct {
	User         *account.User
	AccessToken  string
	RefreshToken string
	Session      *session.Session
}

// Login verifies credentials, resolves the account's token state and
// establishes a server-side session.
//
// The stored pair moves through NoTokens, ActivePair, AccessExpired and
// BothExpired. An unexpired access token is returned unchanged, so
// re-login within the access TTL is idempotent. After access expiry a new
// access token is minted against the still-valid refresh token, which is
// reused until its own expiry rather than rotated. Once both have expired
// the caller must authenticate from scratch.
//
// A missing account and a wrong password fail differently (NotFound vs
// Unauthorized). That mirrors the deployed API contract; collapsing both to
// a generic unauthorized would close a minor account-enumeration leak but
// break existing clients.
func (s *Service) Login(email, plainPassword, ipAddress, userAgent string) (*LoginResult, error) {
	if email == "" {
		return nil, BadRequest("email")
	}
	if plainPassword == "" {
		return nil, BadRequest("password")
	}

	user, err := s.accounts.ReadByEmail(email)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			if s.logger != nil {
				s.logger.Warn("login attempt for unknown account")
			}
			return nil, NotFound("user")
		}
		return nil, Internal("login user account", err)
	}

	if !s.passwords.Verify(user.Password, plainPassword) {
		if s.logger != nil {
			s.logger.Warn("login failed: password mismatch", zap.Uint("user_id", user.ID))
		}
		return nil, Unauthorized("password")
	}

	accessToken, refreshToken, err := s.resolveTokens(user.ID)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, Internal("create session", err)
	}

	if s.logger != nil {
		s.logger.Info("login succeeded", zap.Uint("user_id", user.ID))
	}

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      sess,
	}, nil
}

// resolveTokens walks the token state machine for one account and returns
// the pair the client should hold.
func (s *Service) resolveTokens(userID uint) (string, string, error) {
	now := time.Now()

	record, err := s.store.ReadByUserID(userID)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenRecordNotFound) {
			return s.issueNewPair(userID, false)
		}
		return "", "", Internal("read token record", err)
	}

	switch {
	case record.AccessToken != "" && record.AccessTokenExpiresAt != nil && now.Before(*record.AccessTokenExpiresAt):
		// ActivePair: hand back the stored pair unchanged.
		return record.AccessToken, record.RefreshToken, nil

	case record.RefreshToken != "" && record.RefreshTokenExpiresAt != nil && now.Before(*record.RefreshTokenExpiresAt):
		// AccessExpired: mint a fresh access token, keep the refresh token.
		accessToken, err := s.tokens.IssueAccessToken(userID)
		if err != nil {
			return "", "", Internal("issue access token", err)
		}

		accessExpiresAt := now.Add(s.config.Token.AccessExpiry)
		if _, err := s.store.UpdateTokens(userID, tokenstore.TokenPairUpdate{
			AccessToken:          &accessToken,
			AccessTokenExpiresAt: &accessExpiresAt,
		}); err != nil {
			return "", "", Internal("update token record", err)
		}

		return accessToken, record.RefreshToken, nil

	case record.AccessToken == "" && record.RefreshToken == "":
		// Row exists but only holds reset fields; issue a full pair into it.
		return s.issueNewPair(userID, true)

	default:
		// BothExpired.
		if s.logger != nil {
			s.logger.Warn("login with fully expired token pair", zap.Uint("user_id", userID))
		}
		return "", "", Unauthorized("refresh token")
	}
}

func (s *Service) issueNewPair(userID uint, rowExists bool) (string, string, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", "", Internal("issue access token", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return "", "", Internal("issue refresh token", err)
	}

	now := time.Now()
	accessExpiresAt := now.Add(s.config.Token.AccessExpiry)
	refreshExpiresAt := now.Add(s.config.Token.RefreshExpiry)

	if rowExists {
		if _, err := s.store.UpdateTokens(userID, tokenstore.TokenPairUpdate{
			AccessToken:           &accessToken,
			AccessTokenExpiresAt:  &accessExpiresAt,
			RefreshToken:          &refreshToken,
			RefreshTokenExpiresAt: &refreshExpiresAt,
		}); err != nil {
			return "", "", Internal("update token record", err)
		}
		return accessToken, refreshToken, nil
	}

	_, err = s.store.Create(userID, accessToken, refreshToken, accessExpiresAt, refreshExpiresAt)
	if err != nil {
		if errors.Is(err, tokenstore.ErrConflict) {
			// Lost a concurrent login race; the winner's pair is canonical.
			record, readErr := s.store.ReadByUserID(userID)
			if readErr != nil {
				return "", "", Internal("read token record", readErr)
			}
			return record.AccessToken, record.RefreshToken, nil
		}
		return "", "", Internal("create token record", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh resolves a refresh token back to its owning account and mints a
// new access token against it. The account id comes from the stored row,
// never from the client.
func (s *Service) Refresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", Unauthorized("refresh token")
	}

	record, err := s.store.ReadByRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenRecordNotFound) {
			return "", Unauthorized("refresh token")
		}
		return "", Internal("read token record", err)
	}

	if record.RefreshTokenExpiresAt == nil || time.Now().After(*record.RefreshTokenExpiresAt) {
		return "", Unauthorized("refresh token")
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidSignature) && s.logger != nil {
			s.logger.Error("stored refresh token failed signature check",
				zap.Uint("user_id", record.UserID))
		}
		return "", Unauthorized("refresh token")
	}

	if claims.UserID != record.UserID {
		return "", Unauthorized("refresh token")
	}

	accessToken, err := s.tokens.IssueAccessToken(record.UserID)
	if err != nil {
		return "", Internal("issue access token", err)
	}

	accessExpiresAt := time.Now().Add(s.config.Token.AccessExpiry)
	if _, err := s.store.UpdateTokens(record.UserID, tokenstore.TokenPairUpdate{
		AccessToken:          &accessToken,
		AccessTokenExpiresAt: &accessExpiresAt,
	}); err != nil {
		return "", Internal("update token record", err)
	}

	return accessToken, nil
}

// Logout deletes the account's token record and destroys its sessions.
// Logging out twice fails on the missing token record; an already-absent
// session is not an error.
func (s *Service) Logout(userID uint) error {
	if _, err := s.store.ReadByUserID(userID); err != nil {
		if errors.Is(err, tokenstore.ErrTokenRecordNotFound) {
			return Unauthorized("refresh token")
		}
		return Internal("read token record", err)
	}

	if err := s.store.Delete(userID); err != nil {
		return Internal("logout user", err)
	}

	if err := s.sessions.DestroyByUserID(userID); err != nil {
		return Internal("destroy session", err)
	}

	if s.logger != nil {
		s.logger.Info("logout succeeded", zap.Uint("user_id", userID))
	}

	return nil
}
