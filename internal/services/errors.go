package services

import "errors"

var (
	// ErrUnauthorized is returned when a non-author attempts to mutate a record.
	ErrUnauthorized = errors.New("only the author may modify this record")

	// ErrNoSession is returned by session operations that require a signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrIDUnavailable is returned when a signup id is taken or too short.
	ErrIDUnavailable = errors.New("id is not available")
)
