package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/middleware"

	"clinic-booking/internal/lib/sl"
)

// Recover turns a handler panic into a logged error and a 500 response.
// fallback writes the response body; nil falls back to a plain-text 500.
func Recover(log *slog.Logger, fallback http.Handler) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/recover"))
	if fallback == nil {
		fallback = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				if e, ok := rec.(error); ok {
					err = fmt.Errorf("panic: %w", e)
				}
				log.Error("panic while serving request",
					sl.Err(err),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				fallback.ServeHTTP(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
