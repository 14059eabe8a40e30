// Package providers contains dependency injection providers for the Readwise
// local mirror.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/config"
	"github.com/chrisbillows/readwise-local-plus/internal/logger"
)

// CLIArgs carries the command-line arguments into config loading.
type CLIArgs []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args := do.MustInvoke[CLIArgs](i)
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		File:        cfg.Logger.File,
	})

	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	return log, nil
}
