package auth_test

import (
	"testing"
	"time"

	"github.com/pomclinic/intake/services/auth"
	"github.com/pomclinic/intake/services/tokenstore"
	"github.com/pomclinic/intake/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) expireReset(t *testing.T) {
	t.Helper()
	err := f.db.Model(&tokenstore.UserToken{}).
		Where("user_id = ?", f.user.ID).
		Update("reset_token_expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}

func TestRequestReset(t *testing.T) {
	t.Run("stores a hex token with the configured expiry", func(t *testing.T) {
		f := setup(t)

		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		assert.Equal(t, f.user.ID, request.UserID)
		assert.Len(t, request.Token, f.cfg.Token.ResetLength*2)
		assert.WithinDuration(t, time.Now().Add(f.cfg.Token.ResetExpiry), request.ExpiresAt, 5*time.Second)
		assert.Contains(t, request.ResetURL, "token="+request.Token)

		record, err := f.store.ReadByUserID(f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, request.Token, record.ResetToken)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := setup(t)

		_, err := f.svc.RequestReset("nobody@example.com")
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("leaves a live pair untouched by default", func(t *testing.T) {
		f := setup(t)
		result := f.login(t)

		_, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		record, err := f.store.ReadByUserID(f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, result.AccessToken, record.AccessToken)
		assert.Equal(t, result.RefreshToken, record.RefreshToken)
	})

	t.Run("clears the pair when the policy demands it", func(t *testing.T) {
		f := setup(t)
		f.cfg.Token.ClearTokensOnResetRequest = true
		f.login(t)

		_, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		record, err := f.store.ReadByUserID(f.user.ID)
		require.NoError(t, err)
		assert.Empty(t, record.AccessToken)
		assert.Empty(t, record.RefreshToken)
		assert.NotEmpty(t, record.ResetToken)
	})

	t.Run("notifies the mail service with the reset URL", func(t *testing.T) {
		f := setup(t)
		mailSvc := &testutils.MockMailService{}
		mailSvc.On("SendPasswordResetRequested", mock.AnythingOfType("auth.ResetNotification")).Return(nil)
		f.svc.SetMailService(mailSvc)

		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		mailSvc.AssertCalled(t, "SendPasswordResetRequested", mock.MatchedBy(func(n auth.ResetNotification) bool {
			return n.UserID == f.user.ID && n.ResetURL == request.ResetURL
		}))
	})
}

func TestValidateReset(t *testing.T) {
	t.Run("accepts the issued token", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.ValidateReset(f.user.ID, request.Token))

		// Validation does not consume the token.
		require.NoError(t, f.svc.ValidateReset(f.user.ID, request.Token))
	})

	t.Run("rejects a wrong token of the right length", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		wrong := make([]byte, len(request.Token))
		for i := range wrong {
			wrong[i] = 'f'
		}
		err = f.svc.ValidateReset(f.user.ID, string(wrong))
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("rejects a token of the wrong length", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		err = f.svc.ValidateReset(f.user.ID, "short")
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("rejects after expiry", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)
		f.expireReset(t)

		err = f.svc.ValidateReset(f.user.ID, request.Token)
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("no pending reset", func(t *testing.T) {
		f := setup(t)

		err := f.svc.ValidateReset(f.user.ID, "anything")
		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})
}

func TestCompleteReset(t *testing.T) {
	t.Run("replaces the password and clears the reset sub-record", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.CompleteReset(f.user.ID, request.Token, "secret2"))

		_, err = f.svc.Login("a@example.com", "secret1", "", "")
		assert.Equal(t, auth.KindUnauthorized, auth.KindOf(err))

		result, err := f.svc.Login("a@example.com", "secret2", "", "")
		require.NoError(t, err)
		assert.Equal(t, f.user.ID, result.User.ID)

		record, err := f.store.ReadByUserID(f.user.ID)
		require.NoError(t, err)
		assert.Empty(t, record.ResetToken)
		assert.Nil(t, record.ResetTokenExpiresAt)
	})

	t.Run("leaves the live pair byte-identical", func(t *testing.T) {
		f := setup(t)
		result := f.login(t)

		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)
		require.NoError(t, f.svc.CompleteReset(f.user.ID, request.Token, "secret2"))

		record, err := f.store.ReadByUserID(f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, result.AccessToken, record.AccessToken)
		assert.Equal(t, result.RefreshToken, record.RefreshToken)
	})

	t.Run("token cannot be used twice", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.CompleteReset(f.user.ID, request.Token, "secret2"))

		err = f.svc.CompleteReset(f.user.ID, request.Token, "secret3")
		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		f := setup(t)
		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)
		f.expireReset(t)

		err = f.svc.CompleteReset(f.user.ID, request.Token, "secret2")
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("unknown account", func(t *testing.T) {
		f := setup(t)

		err := f.svc.CompleteReset(99, "anything", "secret2")
		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})

	t.Run("empty new password", func(t *testing.T) {
		f := setup(t)

		err := f.svc.CompleteReset(f.user.ID, "anything", "")
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))
	})

	t.Run("notifies the mail service on completion", func(t *testing.T) {
		f := setup(t)
		mailSvc := &testutils.MockMailService{}
		mailSvc.On("SendPasswordResetRequested", mock.AnythingOfType("auth.ResetNotification")).Return(nil)
		mailSvc.On("SendPasswordResetCompleted", mock.AnythingOfType("auth.ResetNotification")).Return(nil)
		f.svc.SetMailService(mailSvc)

		request, err := f.svc.RequestReset("a@example.com")
		require.NoError(t, err)
		require.NoError(t, f.svc.CompleteReset(f.user.ID, request.Token, "secret2"))

		mailSvc.AssertCalled(t, "SendPasswordResetCompleted", mock.MatchedBy(func(n auth.ResetNotification) bool {
			return n.UserID == f.user.ID
		}))
	})
}
