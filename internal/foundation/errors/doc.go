// Package errors provides the classified error primitives used across docweave.
//
// A ClassifiedError carries a category (config, filesystem, collision, ...), a
// severity and a free-form context map. Run-level failures are built with the
// fluent ErrorBuilder and surfaced to the CLI through CLIErrorAdapter, which
// maps categories to distinguished exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "cannot create target root").
//		Fatal().
//		WithContext("path", targetRoot).
//		Build()
package errors
