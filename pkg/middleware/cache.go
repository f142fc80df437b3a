package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl marks successful GET and HEAD responses as publicly cacheable
// for maxAge. Any other status is sent with "no-store" so error pages are
// never cached by intermediaries.
func CacheControl(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			rec := newStatusRecorder(w)
			rec.beforeHeader = func(status int) {
				if status == http.StatusOK {
					w.Header().Set("Cache-Control", value)
				} else {
					w.Header().Set("Cache-Control", "no-store")
				}
			}
			next.ServeHTTP(rec, r)
		})
	}
}
