// Package di provides dependency injection configuration for the Readwise
// local mirror.
package di

import (
	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line arguments handed to config loading.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.CLIArgs(args))

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Sync layer
	do.Provide(injector, providers.ProvideReadwiseClient)
	do.Provide(injector, providers.ProvidePipeline)

	return injector
}
