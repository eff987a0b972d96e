package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for path matching and keeps a method table per path, so a request with an
// unregistered method gets a JSON 405 with an Allow header instead of falling through.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      map[string]*methodTable
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		routes:      map[string]*methodTable{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware only wraps paths registered after the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The first registration for a path mounts its method table, wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	table, ok := r.routes[path]
	if !ok {
		table = &methodTable{handlers: map[string]http.Handler{}}
		r.routes[path] = table
		r.mux.Handle(path, r.Apply(table))
	}
	table.handlers[strings.ToUpper(method)] = handler
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// The first registered middleware is the outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return Chain(handler, r.middlewares...)
}

type methodTable struct {
	handlers map[string]http.Handler
}

func (t *methodTable) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := t.handlers[req.Method]; ok {
		h.ServeHTTP(w, req)
		return
	}

	w.Header().Set("Allow", strings.Join(t.allowed(), ", "))
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (t *methodTable) allowed() []string {
	methods := make([]string, 0, len(t.handlers))
	for m := range t.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}
