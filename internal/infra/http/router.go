package http

import (
	"net/http"
)

// Middleware wraps an http.Handler following the standard net/http
// middleware pattern.
type Middleware func(http.Handler) http.Handler

// Router abstracts HTTP routing so the underlying implementation can
// be swapped without touching handler or route code.
type Router interface {
	// HTTP method handlers with optional route-specific middleware.
	// Middleware is applied in order: the first wraps outermost.
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PUT(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PATCH(path string, handler http.HandlerFunc, middlewares ...Middleware)
	DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Group creates a route group with prefix and optional middleware
	// applied to every route within the group.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	// Use adds middleware to all subsequent routes.
	Use(middlewares ...Middleware)

	// Handler returns the http.Handler for use with http.Server.
	Handler() http.Handler

	// Walk iterates over all registered routes.
	Walk(fn func(method, path string, handler http.Handler) error) error
}

// Chain applies middlewares to a handler. The first middleware in the
// list is the outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
