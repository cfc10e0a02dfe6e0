package config

import "errors"

var (
	// ErrUnknownKey indicates a key that is not a recognized option.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that cannot be used for its key.
	ErrInvalidValue = errors.New("invalid config value")
)
