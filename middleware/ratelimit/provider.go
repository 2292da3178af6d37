package ratelimit

import (
	"github.com/pomclinic/intake/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRateLimitStore(cfg *config.Config, db *gorm.DB) Store {
	switch cfg.RateLimit.Store {
	case "memory":
		return NewMemoryStore()
	default:
		return NewGormStore(db)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)
