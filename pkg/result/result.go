// Package result provides the tri-state result type returned by every
// coordinator operation. Callers pattern-match on the state instead of
// handling exceptions; no coordinator call ever panics across its boundary.
package result

// State identifies which variant a Result holds.
type State int

const (
	// StateLoading - the operation has started but produced no data yet
	StateLoading State = iota
	// StateSuccess - the operation completed and Data is valid
	StateSuccess
	// StateError - the operation failed and Err carries the cause
	StateError
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateSuccess:
		return "SUCCESS"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Result is a tagged union of Loading, Success(data), and Error(cause).
type Result[T any] struct {
	state State
	data  T
	err   error
}

// Loading returns a Result in the loading state.
func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

// Success returns a Result carrying data.
func Success[T any](data T) Result[T] {
	return Result[T]{state: StateSuccess, data: data}
}

// Error returns a Result carrying a failure cause.
func Error[T any](err error) Result[T] {
	return Result[T]{state: StateError, err: err}
}

// State returns the variant tag.
func (r Result[T]) State() State { return r.state }

// IsLoading reports whether the result is still loading.
func (r Result[T]) IsLoading() bool { return r.state == StateLoading }

// IsSuccess reports whether the result carries data.
func (r Result[T]) IsSuccess() bool { return r.state == StateSuccess }

// IsError reports whether the result carries a failure.
func (r Result[T]) IsError() bool { return r.state == StateError }

// Data returns the payload and whether it is valid.
func (r Result[T]) Data() (T, bool) {
	return r.data, r.state == StateSuccess
}

// MustData returns the payload, valid only for success results. It exists
// for tests and call sites that have already checked the state.
func (r Result[T]) MustData() T {
	return r.data
}

// Err returns the failure cause, nil unless the result is an error.
func (r Result[T]) Err() error {
	if r.state != StateError {
		return nil
	}
	return r.err
}

// Map transforms the payload of a success result, passing loading and error
// states through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch r.state {
	case StateSuccess:
		return Success(fn(r.data))
	case StateError:
		return Error[U](r.err)
	default:
		return Loading[U]()
	}
}
