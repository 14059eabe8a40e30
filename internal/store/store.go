// Package store defines the error vocabulary shared by persistence backends.
package store

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")
