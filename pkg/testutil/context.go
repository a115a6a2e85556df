package testutil

import (
	"net/http"
	"time"

	"tradelane/pkg/domain"
	"tradelane/pkg/requestcontext"
)

// WithCaller attaches a caller principal to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller domain.Principal) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestTime pins the request-scoped clock, so tests control "now".
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithRequestID attaches a request ID for correlation assertions.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
