// Package foundation holds small generic helpers shared across packages.
package foundation

// Result is the outcome of one unit of work: either a value or an error.
// Loops that must not stop on a single failure collect one Result per item
// and settle them in one place.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result. A nil err yields a successful zero Result.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Match executes onOk if successful, onErr if failed.
func (r Result[T]) Match(onOk func(T), onErr func(error)) {
	if r.err == nil {
		onOk(r.value)
		return
	}
	onErr(r.err)
}
