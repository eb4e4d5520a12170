// Package fn holds the small generic helpers shared by the engine: a Result
// type, bounded parallel map, retry with backoff, and traced stages.
package fn

import "errors"

var errNilErr = errors.New("fn: Err called with nil error")

// Result carries either a value or an error through retry and breaker stages.
// The zero Result is Ok with the zero value.
type Result[T any] struct {
	val T
	err error
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v}
}

// Err creates a failed Result. A nil err still yields a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = errNilErr
	}
	return Result[T]{err: err}
}

// FromPair creates a Result from a (value, error) pair.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Error returns the failure, or nil.
func (r Result[T]) Error() error { return r.err }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }
