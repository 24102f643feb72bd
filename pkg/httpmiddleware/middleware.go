// Package httpmiddleware provides the net/http middleware chain used by the
// API server: panic recovery, request ids, CORS, rate limiting, request
// logging, and OpenTelemetry instrumentation.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies the middlewares to h. The first middleware in the list is
// the outermost, i.e. it sees the request first.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
