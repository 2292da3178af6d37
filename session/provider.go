package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Manager wraps scs for the cookie-facing side of sessions: the signed
// session cookie the browser holds maps onto a durable Session record.
type Manager struct {
	*scs.SessionManager
	config config.SessionConfig
}

func ProvideSessionManager(cfg *config.Config, db *gorm.DB) (*Manager, error) {
	sessionManager := scs.New()

	var store scs.Store
	var err error

	switch cfg.Session.Store {
	case "memory":
		store = NewMemoryStore()
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database session store requires a database")
		}
		store, err = NewDatabaseStore(db)
		if err != nil {
			return nil, fmt.Errorf("failed to create database session store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Session.Store)
	}

	sessionManager.Store = store
	sessionManager.Lifetime = cfg.Session.MaxAge
	sessionManager.IdleTimeout = cfg.Session.MaxAge
	sessionManager.Cookie.Name = cfg.Session.Name
	sessionManager.Cookie.Path = cfg.Session.Path
	sessionManager.Cookie.Domain = cfg.Session.Domain
	sessionManager.Cookie.Secure = cfg.Session.Secure
	sessionManager.Cookie.HttpOnly = cfg.Session.HttpOnly

	switch cfg.Session.SameSite {
	case "strict":
		sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	case "none":
		sessionManager.Cookie.SameSite = http.SameSiteNoneMode
	default:
		sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	}

	return &Manager{
		SessionManager: sessionManager,
		config:         cfg.Session,
	}, nil
}

func ProvideSessionService(lc fx.Lifecycle, db *gorm.DB, cfg *config.Config, logger *logging.Service) SessionService {
	service := NewSessionService(db, cfg.Session, logger)

	if impl, ok := service.(*sessionService); ok && cfg.Session.SweepInterval > 0 {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				impl.StartSweepWorker()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				impl.StopSweepWorker()
				return nil
			},
		})
	}

	return service
}

var Module = fx.Module("session",
	fx.Provide(ProvideSessionManager),
	fx.Provide(ProvideSessionService),
)
