// Package api assembles the HTTP routes and middleware chain.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"librarycatalog/internal/book"
	"librarycatalog/internal/httpx"
)

const readyTimeout = 500 * time.Millisecond

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger         *slog.Logger
	Books          *book.HTTPHandler
	Store          Pinger
	AllowedOrigins []string
	EnableHSTS     bool
	MaxBodyBytes   int64
	// RateLimiter is optional; nil disables per-client limiting.
	RateLimiter *httpx.RateLimitMiddleware
}

// NewRouter wires the middleware chain, outermost first, and the routes.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware(opts.Logger))
	r.Use(httpx.AccessLogMiddleware(opts.Logger))
	r.Use(httpx.SecurityHeadersMiddleware(opts.EnableHSTS))
	// An empty origin list means go-chi/cors would allow every origin.
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(httpx.RequestSizeLimitMiddleware(opts.MaxBodyBytes))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Text(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := opts.Store.Ping(ctx); err != nil {
			opts.Logger.Warn("readiness check failed", "error", err)
			httpx.Text(w, http.StatusServiceUnavailable, "db not ready")
			return
		}
		httpx.Text(w, http.StatusOK, "ready")
	})

	r.Get("/book_dtls", opts.Books.Details)
	r.Post("/newbook", opts.Books.Create)

	return r
}
