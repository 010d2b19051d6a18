package errors

import "errors"

// Error taxonomy for the retrieval pipeline. Input errors are the caller's
// fault and never retried; upstream errors come from external calls
// (embedding, generation, vector index) and propagate as hard failures.
// An empty retrieval result is NOT an error.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	ErrUpstream = errors.New("upstream call failed")
	ErrInternal = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}
