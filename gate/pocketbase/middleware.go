// Package pocketbase adapts the gate to a PocketBase application, mounting
// it as route middleware over PocketBase's *core.RequestEvent handler
// chain. PocketBase is used purely as an HTTP router and admin-UI host
// here — the dashboard and metrics handlers still read from the gate's
// in-memory stats recorder, never from PocketBase's database.
package pocketbase

import (
	"net/http"

	"github.com/l402lab/l402-go/gate"
	"github.com/pocketbase/pocketbase/core"
)

// NewMiddleware returns a PocketBase route middleware function gating
// routes per routeOpts. Bind it the way any other PocketBase middleware
// is bound:
//
//	middleware := pocketbase.NewMiddleware(toll, gate.RouteOptions{...})
//	se.Router.GET("/api/joke", handleJoke).BindFunc(middleware)
//
//	group := se.Router.Group("/api/premium")
//	group.BindFunc(middleware)
func NewMiddleware(toll *gate.Toll, routeOpts gate.RouteOptions) func(*core.RequestEvent) error {
	mw := toll.Middleware(routeOpts)
	return func(e *core.RequestEvent) error {
		admitted := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admitted = true
			e.Request = r
		}))
		handler.ServeHTTP(e.Response, e.Request)
		if !admitted {
			return nil
		}
		return e.Next()
	}
}
