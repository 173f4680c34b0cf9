package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"librarycatalog/internal/di"
	"librarycatalog/internal/di/providers"
)

// @title Library Catalog API
// @version 1.0
// @description Book detail lookup and book creation with author and genre reuse.
// @BasePath /
func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*slog.Logger](injector)
	server := do.MustInvoke[*providers.HTTPServerHandle](injector)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		log.Info("shutting down server gracefully", "signal", sig.String())
	case err := <-serveErr:
		log.Error("server error", "error", err)
		exitCode = 1
	}

	// The container stops the server before closing the store.
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
	os.Exit(exitCode)
}
