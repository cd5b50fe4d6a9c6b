package configuration

import "errors"

var (
	// ErrInvalidWorkers occurs when a configured worker count is not a
	// positive integer.
	ErrInvalidWorkers = errors.New("workers must be a positive integer")

	// ErrInvalidInt occurs when a configured value is not an integer.
	ErrInvalidInt = errors.New("invalid integer value")

	// ErrInvalidBool occurs when a configured switch is not a recognized
	// boolean value.
	ErrInvalidBool = errors.New("invalid boolean value")
)
