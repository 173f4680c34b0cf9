package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope unless the
// handler already started the response.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"request_id", RequestIDFrom(r),
						"error", err,
						"stack", string(debug.Stack()),
					)
					if !rw.headerWritten {
						JSONError(rw, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
					}
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
