package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pomclinic/intake/services/token"
	"github.com/pomclinic/intake/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *token.Service {
	t.Helper()
	cfg := testutils.GetTestConfig()
	privateKey, publicKey := testutils.GenerateTestKey(t)
	return token.NewServiceWithKeys(&cfg.Token, nil, privateKey, publicKey)
}

func TestIssue(t *testing.T) {
	svc := newService(t)

	t.Run("round-trips subject and expiry", func(t *testing.T) {
		tokenString, err := svc.Issue(42, time.Hour)
		require.NoError(t, err)

		claims, err := svc.Verify(tokenString)
		require.NoError(t, err)

		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "intake-test", claims.Issuer)
		assert.NotEmpty(t, claims.JTI)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("tokens for the same account are never byte-equal", func(t *testing.T) {
		first, err := svc.IssueAccessToken(7)
		require.NoError(t, err)
		second, err := svc.IssueAccessToken(7)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("access and refresh tokens carry their configured TTLs", func(t *testing.T) {
		accessToken, err := svc.IssueAccessToken(7)
		require.NoError(t, err)
		refreshToken, err := svc.IssueRefreshToken(7)
		require.NoError(t, err)

		accessClaims, err := svc.Verify(accessToken)
		require.NoError(t, err)
		refreshClaims, err := svc.Verify(refreshToken)
		require.NoError(t, err)

		assert.WithinDuration(t, time.Now().Add(svc.AccessExpiry()), accessClaims.ExpiresAt.Time, 5*time.Second)
		assert.WithinDuration(t, time.Now().Add(svc.RefreshExpiry()), refreshClaims.ExpiresAt.Time, 5*time.Second)
	})
}

func TestVerify(t *testing.T) {
	svc := newService(t)

	t.Run("expired token", func(t *testing.T) {
		tokenString, err := svc.Issue(42, -time.Minute)
		require.NoError(t, err)

		_, err = svc.Verify(tokenString)
		assert.ErrorIs(t, err, token.ErrExpiredToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := svc.Verify("not.a.jwt")
		assert.ErrorIs(t, err, token.ErrMalformedToken)
	})

	t.Run("token signed by a different key", func(t *testing.T) {
		other := newService(t)
		tokenString, err := other.Issue(42, time.Hour)
		require.NoError(t, err)

		_, err = svc.Verify(tokenString)
		assert.ErrorIs(t, err, token.ErrInvalidSignature)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"user_id": 42,
		})
		tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(tokenString)
		assert.Error(t, err)
	})
}
