package core

import "errors"

// Common errors.
var (
	ErrNotFound     = errors.New("key not found")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrClosed       = errors.New("service is closed")
	ErrNotWatchable = errors.New("repository does not support watching")
)
