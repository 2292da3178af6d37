package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"INTAKE_APP_"`
	Server    ServerConfig    `envPrefix:"INTAKE_SERVER_"`
	Log       LogConfig       `envPrefix:"INTAKE_LOG_"`
	Database  DatabaseConfig  `envPrefix:"INTAKE_DB_"`
	Password  PasswordConfig  `envPrefix:"INTAKE_PASSWORD_"`
	Token     TokenConfig     `envPrefix:"INTAKE_TOKEN_"`
	Session   SessionConfig   `envPrefix:"INTAKE_SESSION_"`
	Mail      MailConfig      `envPrefix:"INTAKE_MAIL_"`
	RateLimit RateLimitConfig `envPrefix:"INTAKE_RATE_LIMIT_"`
}

type AppConfig struct {
	Name    string `env:"NAME" envDefault:"Peace of Mind Intake"`
	Version string `env:"VERSION" envDefault:"1.0.0"`
	URL     string `env:"URL" envDefault:"http://localhost:8080"`
	// ClientURL is the SPA origin password reset links point back to.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"intake.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type PasswordConfig struct {
	Memory      uint32 `env:"MEMORY_KB" envDefault:"65536"`
	Time        uint32 `env:"TIME" envDefault:"3"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"2"`
	SaltLength  uint32 `env:"SALT_LENGTH" envDefault:"16"`
	KeyLength   uint32 `env:"KEY_LENGTH" envDefault:"32"`
}

type TokenConfig struct {
	PrivateKeyPath string        `env:"PRIVATE_KEY_PATH" envDefault:"./certs/local-key.pem"`
	PublicKeyPath  string        `env:"PUBLIC_KEY_PATH"`
	Issuer         string        `env:"ISSUER" envDefault:"pomclinic-intake"`
	AccessExpiry   time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry  time.Duration `env:"REFRESH_EXPIRY" envDefault:"24h"`
	ResetExpiry    time.Duration `env:"RESET_EXPIRY" envDefault:"1h"`
	ResetLength    int           `env:"RESET_LENGTH" envDefault:"20"`
	// ClearTokensOnResetRequest forces a full re-login after a reset request by
	// dropping the live access/refresh pair alongside the new reset token.
	ClearTokensOnResetRequest bool `env:"CLEAR_TOKENS_ON_RESET_REQUEST" envDefault:"false"`
	CookieSecure              bool `env:"COOKIE_SECURE" envDefault:"true"`
}

type SessionConfig struct {
	Store         string        `env:"STORE" envDefault:"database"`
	Name          string        `env:"NAME" envDefault:"intake_session"`
	MaxAge        time.Duration `env:"MAX_AGE" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	Path          string        `env:"PATH" envDefault:"/"`
	Domain        string        `env:"DOMAIN"`
	Secure        bool          `env:"SECURE" envDefault:"true"`
	HttpOnly      bool          `env:"HTTP_ONLY" envDefault:"true"`
	SameSite      string        `env:"SAME_SITE" envDefault:"lax"`
}

// RateLimitConfig governs the credential-guessing limiter on the login and
// password-reset endpoints.
type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Store   string        `env:"STORE" envDefault:"database"`
	Rate    int           `env:"RATE" envDefault:"10"`
	Period  time.Duration `env:"PERIOD" envDefault:"15m"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"Peace of Mind Spine"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
