// Package outcome carries the result of every operation that can fail in the
// content-access layer. Failures are data: they are classified into a Kind at
// the boundary that produced them and travel up by return value.
package outcome

import (
	"fmt"

	"github.com/samber/mo"
)

// Failure describes a classified failure.
type Failure struct {
	Kind    Kind
	Message string
	RawCode mo.Option[int] // HTTP status when the failure came from a response
}

// Error implements the error interface
func (f Failure) Error() string {
	if code, ok := f.RawCode.Get(); ok {
		return fmt.Sprintf("%s (%d): %s", f.Kind, code, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is either a success payload or a Failure. The zero value is a
// success holding the zero T. Outcomes are never mutated after construction.
type Outcome[T any] struct {
	value   T
	failure mo.Option[Failure]
}

// Success wraps a payload.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Fail builds a failed outcome without a status code.
func Fail[T any](kind Kind, message string) Outcome[T] {
	return Outcome[T]{failure: mo.Some(Failure{Kind: kind, Message: message})}
}

// FailWith builds a failed outcome from an existing Failure.
func FailWith[T any](f Failure) Outcome[T] {
	return Outcome[T]{failure: mo.Some(f)}
}

// FromError classifies err and wraps it as a failed outcome.
func FromError[T any](err error) Outcome[T] {
	return FailWith[T](NewFailure(err))
}

// NewFailure classifies err into a Failure, keeping the status code if any.
func NewFailure(err error) Failure {
	if f, ok := asFailure(err); ok {
		return f
	}
	f := Failure{Kind: Classify(err)}
	if err != nil {
		f.Message = err.Error()
	}
	if code, ok := StatusCode(err); ok {
		f.RawCode = mo.Some(code)
	}
	return f
}

// IsSuccess reports whether the outcome holds a payload.
func (o Outcome[T]) IsSuccess() bool {
	return o.failure.IsAbsent()
}

// Value returns the payload and true on success.
func (o Outcome[T]) Value() (T, bool) {
	if o.failure.IsPresent() {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Failure returns the failure and true when the outcome failed.
func (o Outcome[T]) Failure() (Failure, bool) {
	return o.failure.Get()
}

// Err returns the failure as an error, or nil on success.
func (o Outcome[T]) Err() error {
	if f, ok := o.failure.Get(); ok {
		return f
	}
	return nil
}

// Unpack returns the payload and the failure as an error.
func (o Outcome[T]) Unpack() (T, error) {
	v, _ := o.Value()
	return v, o.Err()
}

// Map transforms a successful payload; failures pass through unchanged.
func Map[T, R any](o Outcome[T], fn func(T) R) Outcome[R] {
	if f, ok := o.failure.Get(); ok {
		return FailWith[R](f)
	}
	return Success(fn(o.value))
}
