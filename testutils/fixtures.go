package testutils

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/pomclinic/intake/config"
	"github.com/stretchr/testify/require"
)

// GetTestConfig returns a config tuned for test speed: minimal argon2
// parameters and short-lived tokens.
func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "Intake Test",
			Version:   "0.0.0",
			URL:       "http://localhost:8080",
			ClientURL: "http://localhost:3000",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "console",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Password: config.PasswordConfig{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		Token: config.TokenConfig{
			Issuer:        "intake-test",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 24 * time.Hour,
			ResetExpiry:   time.Hour,
			ResetLength:   20,
			CookieSecure:  false,
		},
		Session: config.SessionConfig{
			Store:         "memory",
			Name:          "intake_session",
			MaxAge:        24 * time.Hour,
			SweepInterval: 0,
			Path:          "/",
			HttpOnly:      true,
			SameSite:      "lax",
		},
	}
}

// GenerateTestKey mints a throwaway RSA key pair for token signing tests.
func GenerateTestKey(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey, &privateKey.PublicKey
}
