// Package providers holds the constructors registered in the DI container.
package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"librarycatalog/internal/config"
	"librarycatalog/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig loads the configuration from env files and the environment.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProvideLogger provides the process logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := logger.New(logger.Config{
		Environment: cfg.Env,
		Level:       logger.ParseLevel(cfg.LogLevel),
	})
	slog.SetDefault(log)
	return log, nil
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
