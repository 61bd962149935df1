package collector

import "errors"

var (
	// ErrSourceRootNotFound indicates the configured source tree does not exist or is not a directory.
	ErrSourceRootNotFound = errors.New("source root not found")

	// ErrSourceWalkFailed indicates traversal of the source tree failed.
	ErrSourceWalkFailed = errors.New("source tree walk failed")

	// ErrTargetRootCreate indicates the target tree could not be created.
	ErrTargetRootCreate = errors.New("target root could not be created")

	// ErrReadFailed indicates a single source document could not be read.
	ErrReadFailed = errors.New("source document read failed")

	// ErrWriteFailed indicates a single target document could not be written.
	ErrWriteFailed = errors.New("target document write failed")

	// ErrInvalidPattern indicates a naming or exclusion pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
)
