package mail

import (
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/auth"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/fx"
)

// ProvideMailService yields a nil service when no sender address is
// configured; reset notifications are then skipped rather than failing boot.
func ProvideMailService(cfg *config.Config, logger *logging.Service) (auth.MailService, error) {
	if cfg.Mail.FromAddress == "" {
		if logger != nil {
			logger.Warn("mail disabled: INTAKE_MAIL_FROM_ADDRESS not set")
		}
		return nil, nil
	}
	return NewService(&cfg.Mail, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
)
