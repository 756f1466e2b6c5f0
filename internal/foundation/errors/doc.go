// Package errors provides the classified error primitives shared by every facets package.
//
// A ClassifiedError carries a category (validation, concurrency, delegate,
// persistence, parse, ...), a severity, a retry strategy and structured context.
// Errors are created through the fluent ErrorBuilder:
//
//	err := errors.DelegateError("delegate failed").
//		WithCause(cause).
//		WithContext("facet", "java").
//		WithContext("version", "1.5").
//		Build()
//
// Package-level sentinels are built once and matched with the standard library's
// errors.Is, which compares category and message.
package errors
