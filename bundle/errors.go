package bundle

import "errors"

var (
	// ErrMainBundleUnsupported is the panic value raised when a main
	// application bundle is resolved.
	ErrMainBundleUnsupported = errors.New("bundle: main bundle is not supported")
	// ErrInvalidLocation is returned when a path, URL or type cannot be
	// turned into a Location.
	ErrInvalidLocation = errors.New("bundle: invalid location")
	// ErrNotFound is returned by providers for missing entries and for
	// directories.
	ErrNotFound = errors.New("bundle: resource not found")
	// ErrNoProvider is returned when no provider is registered for a type
	// bundle's package.
	ErrNoProvider = errors.New("bundle: no provider registered")
	// ErrNilProvider is returned when registering a nil provider.
	ErrNilProvider = errors.New("bundle: nil provider")
	// ErrConflictingRegistration indicates a package already has a
	// different provider.
	ErrConflictingRegistration = errors.New("bundle: conflicting provider registration")
)
