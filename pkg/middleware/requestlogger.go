package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ecommerce-catalog/pkg/logger"
)

// UserIDHeader carries the caller identity forwarded by the gateway.
const UserIDHeader = "X-User-ID"

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_id, trace_id and span_id. Handlers and services read it
// back with logger.FromContext.
//
// Mount it after RequestLogging and Tracing so both IDs are already set.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(UserIDHeader); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base).With(slog.String("method", r.Method))
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
