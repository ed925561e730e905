// Package store provides durable, owner-scoped persistence for personas,
// interaction logs, and uploaded documents.
package store

import (
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist for the
	// requesting owner. A record owned by someone else yields the same
	// error, so existence never leaks across tenants.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on duplicate persona creation.
	ErrAlreadyExists = errors.New("already exists")
)
