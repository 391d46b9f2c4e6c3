// Package storage defines errors shared by the store implementations.
package storage

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email is already registered")
)
