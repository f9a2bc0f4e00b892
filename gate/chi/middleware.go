// Package chi adapts the gate to chi's router. The state machine is
// identical to the stdlib and gin adapters; the one chi-specific touch is
// reading the matched route pattern (e.g. "/api/joke/{id}") out of chi's
// RouteContext and stashing it in the request context, where RoutePattern
// reads it back. The gate itself still binds macaroons and records stats
// under the raw request path, not the pattern.
package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/l402lab/l402-go/gate"
)

// New returns chi-compatible middleware gating routes per routeOpts.
//
//	r := chi.NewRouter()
//	r.With(New(toll, gate.RouteOptions{...})).Get("/api/joke", handler)
func New(toll *gate.Toll, routeOpts gate.RouteOptions) func(http.Handler) http.Handler {
	mw := toll.Middleware(routeOpts)
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					r = r.WithContext(context.WithValue(r.Context(), routePatternKey, pattern))
				}
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

type contextKey struct{ name string }

var routePatternKey = &contextKey{"chi-route-pattern"}

// RoutePattern returns the chi route pattern stashed in r's context by New,
// if any — useful for an OnPayment callback or stats consumer that wants
// the parameterized pattern rather than gate.PaymentContext's raw path.
func RoutePattern(r *http.Request) (string, bool) {
	pattern, ok := r.Context().Value(routePatternKey).(string)
	return pattern, ok
}
