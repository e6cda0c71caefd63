package store

import "errors"

var (
	// ErrInvalidKey indicates an empty key was used.
	ErrInvalidKey = errors.New("store key must not be empty")

	// ErrConnection indicates a connection problem with the backing store.
	ErrConnection = errors.New("store connection error")
)
