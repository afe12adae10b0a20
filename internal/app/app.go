// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/clock/system"
	"github.com/rafaelordanini/ANP-GRU/internal/config"
	collyfetcher "github.com/rafaelordanini/ANP-GRU/internal/fetcher/colly"
	"github.com/rafaelordanini/ANP-GRU/internal/hash/sha256"
	"github.com/rafaelordanini/ANP-GRU/internal/logging"
	"github.com/rafaelordanini/ANP-GRU/internal/service"
)

// App holds the shared, long-lived services for the application.
// It is initialized once at startup and handed to the commands that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clock  *system.Clock
	svc    *service.Service
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetClock returns the wall clock shared by the service and the HTTP layer.
func (a *App) GetClock() *system.Clock {
	return a.clock
}

// GetService returns the price pipeline service.
func (a *App) GetService() *service.Service {
	return a.svc
}

// NewApp creates and initializes a new App from the configuration at cfgPath
// (empty means defaults plus environment). It is the central point for
// service initialization and fails fast if any piece cannot be built.
func NewApp(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Upstream.UserAgent,
		Timeout:   cfg.FileTimeout(),
	})
	clock := system.New()

	svc, err := service.New(cfg, fetcher, clock, sha256.New(), logger.Named("service"))
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("municipality", cfg.Report.Municipality),
		zap.Bool("discover", cfg.Upstream.Discover),
		zap.Bool("cache", cfg.Cache.Results),
	)

	return &App{cfg: cfg, logger: logger, clock: clock, svc: svc}, nil
}

// Close flushes buffered log entries. Called by a Cobra hook after the
// command finishes.
func (a *App) Close() {
	_ = a.logger.Sync()
}
