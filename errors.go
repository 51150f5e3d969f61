package schedule

import (
	"errors"
)

var (
	// Empty or malformed time table, clock or favorite entry.
	ErrInvalidInput = errors.New("invalid input")

	// Persisted favorites could not be decoded.
	ErrSerialization = errors.New("serialization failure")

	ErrRouteNotFound = errors.New("route not found")
	ErrStopNotFound  = errors.New("stop not found")
)
