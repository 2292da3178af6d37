package auth

import (
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/logging"
	"github.com/pomclinic/intake/services/password"
	"github.com/pomclinic/intake/services/token"
	"github.com/pomclinic/intake/services/tokenstore"
	"github.com/pomclinic/intake/session"
	"go.uber.org/fx"
)

func ProvideAuthService(
	cfg *config.Config,
	accounts *account.Service,
	passwords *password.Service,
	tokens *token.Service,
	store *tokenstore.Service,
	sessions session.SessionService,
	logger *logging.Service,
) *Service {
	return NewService(cfg, accounts, passwords, tokens, store, sessions, logger)
}

type OptionalMailService struct {
	fx.In
	MailService MailService `optional:"true"`
}

func WireMailService(authSvc *Service, opt OptionalMailService) {
	if authSvc != nil && opt.MailService != nil {
		authSvc.SetMailService(opt.MailService)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
	fx.Invoke(WireMailService),
)
