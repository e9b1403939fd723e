package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrCacheMiss is returned by a Cache when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrRouteNotFound is returned when a route name or path cannot be resolved.
var ErrRouteNotFound = errors.New("route not found")

// Configuration errors. They indicate a programming error in the consuming
// application and are never retried.
var (
	// ErrMissingCallback is returned when a declared related view has no handler.
	ErrMissingCallback = errors.New("related view must have a handler function")

	// ErrNilResult is returned when a related view produced no body.
	ErrNilResult = errors.New("related view must return an object, a list or a response")

	// ErrInvalidFinalResponse is returned when the final response hook does not yield a response.
	ErrInvalidFinalResponse = errors.New("final response hook must return a response")

	// ErrInvalidValueList is returned when a value list contains non-mapping entries.
	ErrInvalidValueList = errors.New("invalid value list: every entry must be a mapping")

	// ErrEmptyCacheKey is returned when a view cache entry is written without a key.
	ErrEmptyCacheKey = errors.New("key is mandatory for setting form view cache")
)

// ErrNoSession is returned when a session-backed view handles a request without a session.
var ErrNoSession = errors.New("request has no session")

// ErrNotFound is returned when an application resource does not exist.
var ErrNotFound = errors.New("resource not found")
