package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// ClassifiedError is the error type shared by every facets package. It
// carries a category for exit codes and metrics, a severity, a retry hint
// and key/value context such as the facet and phase that failed.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	head := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return head
	}
	return head + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory     { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity     { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string             { return e.message }
func (e *ClassifiedError) Cause() error                { return e.cause }

// Context returns the attached key/value pairs. Callers must not modify it.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// derive copies e so sentinels are never mutated.
func (e *ClassifiedError) derive() *ClassifiedError {
	c := *e
	return &c
}

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	d := e.derive()
	d.context = maps.Clone(e.context).Set(key, value)
	return d
}

// WithCause returns a copy of e wrapping cause. Sentinels stay matchable
// through errors.Is because comparison ignores the cause.
func (e *ClassifiedError) WithCause(cause error) *ClassifiedError {
	d := e.derive()
	d.cause = cause
	return d
}

// Is matches another ClassifiedError with the same category and message.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// CanRetry reports whether repeating the operation unchanged may succeed.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry == RetryBackoff
}

// IsFatal reports whether the process should stop.
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// AsClassified finds the outermost ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the outermost ClassifiedError in the chain
// belongs to category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}
