package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError fluently. Start from one of the
// category constructors below, e.g.
//
//	errors.ValidationError("unknown runtime").WithContext("runtime", name).Build()
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with severity error and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}}
}

// WrapError starts an error of category that wraps err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = maps.Clone(b.err.context)
	return &e
}

// ConfigError reports an invalid configuration file or environment.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError reports a rejected request. Validation happens before any
// side effect, so the caller may correct the request and retry.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).UserAction()
}

// NotFoundError reports a lookup miss.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// ConcurrencyError reports a modification-lock violation.
func ConcurrencyError(message string) *ErrorBuilder {
	return NewError(CategoryConcurrency, message)
}

// DelegateError reports a failed delegate or event handler.
func DelegateError(message string) *ErrorBuilder {
	return NewError(CategoryDelegate, message)
}

// PersistenceError reports a failed metadata write.
func PersistenceError(message string) *ErrorBuilder {
	return NewError(CategoryPersistence, message).Retryable()
}

// ParseError reports a malformed metadata document or descriptor.
func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message).UserAction()
}

// CatalogError reports an inconsistent facet catalog.
func CatalogError(message string) *ErrorBuilder {
	return NewError(CategoryCatalog, message).Fatal()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message).Retryable()
}

// EventStoreError reports a history journal failure.
func EventStoreError(message string) *ErrorBuilder {
	return NewError(CategoryEventStore, message)
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
