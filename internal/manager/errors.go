package manager

import (
	"errors"

	"lmapi/internal/backend"
)

// notReadyError signals that the preloaded model is not available yet, for
// 503 mapping.
type notReadyError struct{ state State }

func (e notReadyError) Error() string { return "model not ready: " + string(e.state) }

// IsNotReady reports whether err indicates the model is still loading or
// failed to load.
func IsNotReady(err error) bool {
	var e notReadyError
	return errors.As(err, &e)
}

// modelNotFoundError reports a configured name missing from the catalog.
type modelNotFoundError struct{ name string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.name }

// ErrModelNotFound returns an error for a model name absent from the catalog.
func ErrModelNotFound(name string) error { return modelNotFoundError{name: name} }

// IsModelNotFound reports whether the error indicates a missing model name.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// IsDependencyUnavailable reports whether err indicates a missing or failed
// runtime dependency (return 503).
func IsDependencyUnavailable(err error) bool { return backend.IsDependencyUnavailable(err) }
