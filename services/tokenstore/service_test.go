package tokenstore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/pomclinic/intake/services/tokenstore"
	"github.com/pomclinic/intake/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *tokenstore.Service {
	t.Helper()
	db := testutils.SetupTestDB(t, &tokenstore.UserToken{})
	return tokenstore.NewService(db, nil)
}

func createRecord(t *testing.T, store *tokenstore.Service, userID uint) *tokenstore.UserToken {
	t.Helper()
	record, err := store.Create(userID, "access-"+time.Now().String(), "refresh-for-user",
		time.Now().Add(15*time.Minute), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	return record
}

func TestCreate(t *testing.T) {
	store := newStore(t)

	t.Run("creates the row", func(t *testing.T) {
		record := createRecord(t, store, 1)
		assert.Equal(t, uint(1), record.UserID)
		assert.NotEmpty(t, record.AccessToken)
	})

	t.Run("second create for the same account conflicts", func(t *testing.T) {
		_, err := store.Create(1, "another-access", "another-refresh",
			time.Now().Add(15*time.Minute), time.Now().Add(24*time.Hour))
		assert.ErrorIs(t, err, tokenstore.ErrConflict)
	})

	t.Run("concurrent creates leave exactly one row", func(t *testing.T) {
		var wg sync.WaitGroup
		conflicts := make(chan error, 10)

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := store.Create(2, "access", "refresh",
					time.Now().Add(15*time.Minute), time.Now().Add(24*time.Hour))
				if err != nil {
					conflicts <- err
				}
			}(i)
		}
		wg.Wait()
		close(conflicts)

		failures := 0
		for err := range conflicts {
			assert.ErrorIs(t, err, tokenstore.ErrConflict)
			failures++
		}
		assert.Equal(t, 9, failures)

		record, err := store.ReadByUserID(2)
		require.NoError(t, err)
		assert.Equal(t, uint(2), record.UserID)
	})
}

func TestRead(t *testing.T) {
	store := newStore(t)
	created := createRecord(t, store, 1)

	t.Run("by user id", func(t *testing.T) {
		record, err := store.ReadByUserID(1)
		require.NoError(t, err)
		assert.Equal(t, created.AccessToken, record.AccessToken)
	})

	t.Run("by refresh token", func(t *testing.T) {
		record, err := store.ReadByRefreshToken(created.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, uint(1), record.UserID)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := store.ReadByUserID(99)
		assert.ErrorIs(t, err, tokenstore.ErrTokenRecordNotFound)

		_, err = store.ReadByRefreshToken("no-such-token")
		assert.ErrorIs(t, err, tokenstore.ErrTokenRecordNotFound)
	})
}

func TestUpdateTokens(t *testing.T) {
	store := newStore(t)

	t.Run("updates only the supplied fields", func(t *testing.T) {
		created := createRecord(t, store, 1)

		newAccess := "rotated-access"
		newExpiry := time.Now().Add(30 * time.Minute)
		record, err := store.UpdateTokens(1, tokenstore.TokenPairUpdate{
			AccessToken:          &newAccess,
			AccessTokenExpiresAt: &newExpiry,
		})
		require.NoError(t, err)

		assert.Equal(t, "rotated-access", record.AccessToken)
		assert.Equal(t, created.RefreshToken, record.RefreshToken)
	})

	t.Run("never touches the reset columns", func(t *testing.T) {
		resetToken := "pending-reset"
		resetExpiry := time.Now().Add(time.Hour)
		_, err := store.UpdateResetToken(1, &resetToken, &resetExpiry)
		require.NoError(t, err)

		newAccess := "rotated-again"
		_, err = store.UpdateTokens(1, tokenstore.TokenPairUpdate{AccessToken: &newAccess})
		require.NoError(t, err)

		record, err := store.ReadByUserID(1)
		require.NoError(t, err)
		assert.Equal(t, "pending-reset", record.ResetToken)
		require.NotNil(t, record.ResetTokenExpiresAt)
	})

	t.Run("missing row", func(t *testing.T) {
		newAccess := "whatever"
		_, err := store.UpdateTokens(99, tokenstore.TokenPairUpdate{AccessToken: &newAccess})
		assert.ErrorIs(t, err, tokenstore.ErrTokenRecordNotFound)
	})
}

func TestUpdateResetToken(t *testing.T) {
	store := newStore(t)

	t.Run("leaves the live pair byte-identical", func(t *testing.T) {
		created := createRecord(t, store, 1)

		resetToken := "fresh-reset-token"
		resetExpiry := time.Now().Add(time.Hour)
		record, err := store.UpdateResetToken(1, &resetToken, &resetExpiry)
		require.NoError(t, err)

		assert.Equal(t, "fresh-reset-token", record.ResetToken)
		assert.Equal(t, created.AccessToken, record.AccessToken)
		assert.Equal(t, created.RefreshToken, record.RefreshToken)
	})

	t.Run("creates a reset-only row when the account has none", func(t *testing.T) {
		resetToken := "reset-before-login"
		resetExpiry := time.Now().Add(time.Hour)
		record, err := store.UpdateResetToken(5, &resetToken, &resetExpiry)
		require.NoError(t, err)

		assert.Equal(t, uint(5), record.UserID)
		assert.Empty(t, record.AccessToken)
		assert.Empty(t, record.RefreshToken)
	})

	t.Run("nil arguments clear the reset sub-record", func(t *testing.T) {
		record, err := store.UpdateResetToken(1, nil, nil)
		require.NoError(t, err)

		assert.Empty(t, record.ResetToken)
		assert.Nil(t, record.ResetTokenExpiresAt)
		assert.NotEmpty(t, record.AccessToken)
	})
}

func TestClearTokens(t *testing.T) {
	store := newStore(t)
	createRecord(t, store, 1)

	resetToken := "keep-me"
	resetExpiry := time.Now().Add(time.Hour)
	_, err := store.UpdateResetToken(1, &resetToken, &resetExpiry)
	require.NoError(t, err)

	require.NoError(t, store.ClearTokens(1))

	record, err := store.ReadByUserID(1)
	require.NoError(t, err)
	assert.Empty(t, record.AccessToken)
	assert.Empty(t, record.RefreshToken)
	assert.Nil(t, record.AccessTokenExpiresAt)
	assert.Nil(t, record.RefreshTokenExpiresAt)
	assert.Equal(t, "keep-me", record.ResetToken)
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	createRecord(t, store, 1)

	require.NoError(t, store.Delete(1))

	_, err := store.ReadByUserID(1)
	assert.ErrorIs(t, err, tokenstore.ErrTokenRecordNotFound)

	// Deleting an absent record is not an error.
	require.NoError(t, store.Delete(1))
}
