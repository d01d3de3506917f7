// Package errors provides foundational, type-safe error primitives used across pagesmith.
//
// This package contains classified error types and helpers for structured error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, filesystem, template, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryValidation, "input directory not found").
//		Fatal().
//		WithContext("path", inputDir).
//		WithCause(statErr).
//		Build()
package errors
