package ports

// URLResolver maps route names to URLs and back.
type URLResolver interface {
	// Reverse builds the URL of the named route.
	// Returns domain.ErrRouteNotFound when the name is unknown.
	Reverse(name string, args map[string]string) (string, error)

	// Resolve returns the name of the route matching path.
	// Returns domain.ErrRouteNotFound when nothing matches.
	Resolve(path string) (string, error)
}
