package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSourceUnavailable marks one adapter failing for one topic after its
	// own retries. Contained at the fetch site; contributes an empty pool.
	ErrSourceUnavailable = errors.New("source unavailable")
)
