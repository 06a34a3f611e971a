package backend

import (
	"errors"
	"fmt"
)

// InferenceError wraps a failure reported by the runtime. Op names the
// backend call that failed (encode, decode, translate, score, load).
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("inference %s: %v", e.Op, e.Err) }

func (e *InferenceError) Unwrap() error { return e.Err }

// Wrap tags err with op unless it is nil or already an InferenceError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InferenceError
	if errors.As(err, &ie) {
		return err
	}
	return &InferenceError{Op: op, Err: err}
}

// IsInferenceError reports whether err is (or wraps) an InferenceError.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

// ErrScoringUnsupported is returned by runtimes that cannot score sequences.
var ErrScoringUnsupported = errors.New("scoring not supported by this backend")

// dependencyUnavailableError signals a runtime that is not built in or not
// reachable, so the HTTP layer can return 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
