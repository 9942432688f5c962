package http

import "net/http"

// Handler is the platform handler type every service HTTP layer uses
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the routing surface services mount their endpoints against.
// Group shares middleware without a path prefix, Route adds one
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Put(path string, h Handler)
	Patch(path string, h Handler)
	Delete(path string, h Handler)
	Head(path string, h Handler)
	Options(path string, h Handler)

	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux exposes the underlying handler for mounting and tests
	Mux() http.Handler
}
