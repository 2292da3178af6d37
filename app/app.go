package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/database"
	"github.com/pomclinic/intake/handlers"
	"github.com/pomclinic/intake/middleware/ratelimit"
	"github.com/pomclinic/intake/openapi"
	"github.com/pomclinic/intake/server"
	"github.com/pomclinic/intake/services/account"
	"github.com/pomclinic/intake/services/auth"
	"github.com/pomclinic/intake/services/logging"
	"github.com/pomclinic/intake/services/mail"
	"github.com/pomclinic/intake/services/password"
	"github.com/pomclinic/intake/services/token"
	"github.com/pomclinic/intake/services/tokenstore"
	"github.com/pomclinic/intake/session"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// App is the assembled intake backend: config, database, auth services and
// the HTTP surface, composed through fx.
type App struct {
	fx     *fx.App
	logger *logging.Service
}

// Options is the full dependency graph. Exposed so tests can validate the
// wiring without starting the server.
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		config.NewProvider(cfg),
		fx.Supply(database.WithModels(
			&account.User{},
			&tokenstore.UserToken{},
			&session.Session{},
			&ratelimit.RateLimit{},
		)),
		logging.Module,
		database.Module,
		password.Module,
		token.Module,
		tokenstore.Module,
		account.Module,
		mail.Module,
		session.Module,
		ratelimit.Module,
		auth.Module,
		server.NewProvider(),
		handlers.Module,
		openapi.Module,
	)
}

// New assembles the application. Passing a nil config loads it from the
// environment.
func New(cfg *config.Config) *App {
	a := &App{}

	a.fx = fx.New(
		Options(cfg),
		fx.Populate(&a.logger),
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Logger()}
		}),
	)

	return a
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	if a.logger != nil {
		a.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("failed to stop gracefully", zap.Error(err))
		} else {
			log.Printf("failed to stop gracefully: %v", err)
		}
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
