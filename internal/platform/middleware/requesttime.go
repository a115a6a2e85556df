package middleware

import (
	"net/http"
	"time"

	"tradelane/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request and
// stores it in the context. Every operation within a single request observes
// the same "now", so expiry checks, issue dates, and audit timestamps agree.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
