package errors

import (
	"log/slog"
	"maps"
	"slices"
)

// ErrorCategory routes an error to an exit code and a log level.
type ErrorCategory string

const (
	// Input the user can fix: the configuration file, flags, stage names.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Remote source fetch and run event publishing.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Reading the source tree and writing the target tree.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryCollision  ErrorCategory = "collision"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity says how far an error propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the run
	SeverityError   ErrorSeverity = "error"   // fails one document or file
	SeverityWarning ErrorSeverity = "warning" // output is degraded but complete
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext holds structured fields such as the offending path or target.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// GetString returns a string value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

func (c ErrorContext) clone() ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	return out
}

// Attrs renders the fields as slog attributes ordered by key, so log lines are stable.
func (c ErrorContext) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(c))
	for _, k := range slices.Sorted(maps.Keys(c)) {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}
