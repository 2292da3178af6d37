package tokenstore

import (
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideTokenStore(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideTokenStore),
)
