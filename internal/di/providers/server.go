package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"librarycatalog/internal/api"
	"librarycatalog/internal/book"
	"librarycatalog/internal/config"
	"librarycatalog/internal/httpx"
)

// RateLimiterHandle owns the janitor goroutine of the rate limiter.
// Middleware is nil when limiting is disabled.
type RateLimiterHandle struct {
	Middleware *httpx.RateLimitMiddleware
	cancel     context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideRateLimiter provides the per-client limiter. RATE_LIMIT_RPS <= 0
// disables it.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	ctx, cancel := context.WithCancel(context.Background())
	handle := &RateLimiterHandle{cancel: cancel}
	if cfg.RateLimitRPS > 0 {
		handle.Middleware = httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return handle, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := shutdownContext()
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server. It is not started here.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	books := do.MustInvoke[*book.HTTPHandler](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	router := api.NewRouter(api.Options{
		Logger:         log,
		Books:          books,
		Store:          storeHandle,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		EnableHSTS:     cfg.EnableHSTS,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimiter:    limiter.Middleware,
	})

	return &HTTPServerHandle{Server: &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}}, nil
}
