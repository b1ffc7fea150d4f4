package domain

import "errors"

// ErrNotFound is wrapped by collaborators when a requested entity is absent.
var ErrNotFound = errors.New("not found")
