package password

import (
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/fx"
)

func ProvidePasswordService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.Password, logger)
}

var Module = fx.Options(
	fx.Provide(ProvidePasswordService),
)
