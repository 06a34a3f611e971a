package config

import (
	"errors"
	"fmt"
)

// KeyError reports an option name outside the recognized set.
type KeyError struct{ Key string }

func (e KeyError) Error() string { return "unknown config key: " + e.Key }

// ValidationError reports a value rejected by an option's validator.
type ValidationError struct {
	Key   string
	Value string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Key, e.Err)
}

func (e ValidationError) Unwrap() error { return e.Err }

// IsKeyError reports whether err (or any error it wraps) is a KeyError.
func IsKeyError(err error) bool {
	var ke KeyError
	return errors.As(err, &ke)
}

// IsValidationError reports whether err (or any error it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
