package registry

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Registry is a router whose routes carry names, so URLs can be built from a
// name (Reverse) and names recovered from a path (Resolve).
type Registry struct {
	mu       sync.RWMutex
	mux      *chi.Mux
	patterns map[string]string // name -> pattern
	names    map[string]string // pattern -> name
}

var _ ports.URLResolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mux:      chi.NewRouter(),
		patterns: make(map[string]string),
		names:    make(map[string]string),
	}
}

// Use appends middlewares to the underlying router. It must be called before
// any route is registered.
func (r *Registry) Use(middlewares ...func(http.Handler) http.Handler) {
	r.mux.Use(middlewares...)
}

// Route registers h for every method under a chi pattern and binds the pattern to name.
// Registering a name twice keeps the latest pattern for Reverse.
func (r *Registry) Route(name, pattern string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[name] = pattern
	r.names[pattern] = name
	r.mux.Handle(pattern, h)
}

// Name binds a name to a pattern without a handler, for routes served elsewhere.
func (r *Registry) Name(name, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[name] = pattern
	r.names[pattern] = name
	r.mux.Handle(pattern, http.NotFoundHandler())
}

// Names returns the registered route names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		out = append(out, name)
	}
	return out
}

// ServeHTTP dispatches to the registered routes.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Reverse builds the URL of the named route, filling {param} segments from args.
func (r *Registry) Reverse(name string, args map[string]string) (string, error) {
	r.mu.RLock()
	pattern, ok := r.patterns[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrRouteNotFound, name)
	}

	var b strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed pattern %q for route %s", pattern, name)
		}
		b.WriteString(rest[:open])

		key, _, _ := strings.Cut(rest[open+1:open+end], ":")
		val, ok := args[key]
		if !ok || val == "" {
			return "", fmt.Errorf("missing argument %q for route %s", key, name)
		}
		b.WriteString(url.PathEscape(val))
		rest = rest[open+end+1:]
	}

	if strings.HasSuffix(rest, "*") {
		rest = strings.TrimSuffix(rest, "*") + args["*"]
	}
	b.WriteString(rest)
	return b.String(), nil
}

// Resolve returns the name of the route matching path.
func (r *Registry) Resolve(path string) (string, error) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return "", fmt.Errorf("%w: %s", domain.ErrRouteNotFound, path)
	}

	r.mu.RLock()
	name, ok := r.names[strings.Join(rctx.RoutePatterns, "")]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrRouteNotFound, path)
	}
	return name, nil
}
