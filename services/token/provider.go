package token

import (
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/fx"
)

func ProvideTokenService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(&cfg.Token, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideTokenService),
)
