// Package di wires the service together with samber/do.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"librarycatalog/internal/book"
	"librarycatalog/internal/config"
	"librarycatalog/internal/di/providers"
)

// NewContainer creates the container with every provider registered.
// Nothing is built until Bootstrap or an Invoke asks for it.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Catalog core
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideBookHandler)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap builds every service so configuration and connection errors
// surface before the server starts listening.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*book.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
