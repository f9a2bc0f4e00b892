// Package gin provides Gin-compatible middleware for L402 payment gating.
// This package is a thin adapter that translates gin.Context to stdlib http
// patterns and delegates all gating logic to the gate package.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/l402lab/l402-go/gate"
)

// New returns Gin middleware that gates the routes it's attached to,
// according to routeOpts, using toll's shared state (secret, wallet,
// stats, free-tier accounting). Mount it the way any other Gin middleware
// is mounted:
//
//	r.GET("/api/joke", gin.New(toll, gate.RouteOptions{...}), handler)
func New(toll *gate.Toll, routeOpts gate.RouteOptions) ginHandlerFunc {
	mw := toll.Middleware(routeOpts)
	return func(c *gin.Context) {
		admitted := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admitted = true
			c.Request = r
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if admitted {
			c.Next()
			return
		}
		c.Abort()
	}
}

// ginHandlerFunc is an alias kept local to avoid a stutter between the
// package name and gin.HandlerFunc in New's return type.
type ginHandlerFunc = gin.HandlerFunc
