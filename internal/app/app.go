// Package app defines the App struct that composes the main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the database handle
//   - the table accessor running on that handle
package app

import (
	"context"

	"github.com/deppfellow/go-absl/accessor"
	"github.com/deppfellow/go-absl/internal/config"
	"github.com/deppfellow/go-absl/internal/database"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/go-absl/internal/logger"
)

// App is the application container holding shared resources.
type App struct {
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application, if one was started.
	LoggerService *loggerPkg.LoggerService

	DB *database.Database

	// Accessor runs table operations on DB in the configured dialect.
	Accessor *accessor.Accessor
}

// New opens the database and builds the accessor over it.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*App, error) {
	dialect, err := accessor.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg, logger, loggerService)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	acc := accessor.New(db.DB, dialect,
		accessor.WithLogger(logger.With().Str("component", "accessor").Logger()),
		accessor.WithPageRowCount(cfg.Accessor.PageRowCount),
		accessor.WithHTMLEscape(cfg.Accessor.EscapeHTML),
		accessor.WithSlowQueryThreshold(cfg.SlowQueryThreshold()),
	)

	return &App{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Accessor:      acc,
	}, nil
}

// Migrate brings the database schema up to date.
func (a *App) Migrate(ctx context.Context) error {
	if err := database.Migrate(ctx, a.Logger, a.Config, a.DB); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

// Shutdown closes the database and flushes the New Relic agent.
func (a *App) Shutdown() error {
	if err := a.DB.Close(); err != nil {
		return errors.Wrap(err, "failed to close database connection")
	}
	a.LoggerService.Shutdown()
	return nil
}
