package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when adding a record whose id is already present.
var ErrDuplicateID = errors.New("duplicate id")
