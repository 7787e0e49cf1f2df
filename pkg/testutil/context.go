package testutil

import (
	"net/http"
	"time"

	"custos/pkg/requestcontext"
)

// WithActor injects an actor identity into the request context, simulating
// what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithTime pins the request-scoped clock, simulating the request-time
// middleware with a deterministic instant.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID injects a correlation ID into the request context.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
