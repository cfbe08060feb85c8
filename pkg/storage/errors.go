package storage

import "errors"

var (
	// ErrInvalidConfig indicates missing or contradictory backend configuration.
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	// ErrNotFound indicates the requested container or object does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrInvalidName indicates a container or object name that escapes the
	// backend's namespace (e.g. path traversal on the local backend).
	ErrInvalidName = errors.New("storage: invalid name")
)
