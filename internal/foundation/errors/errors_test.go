package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docweave.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "docweave.yaml" {
			t.Errorf("expected context file=docweave.yaml, got %v", file)
		}
	})

	t.Run("Wrapped error detection", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := WrapError(cause, CategoryFileSystem, "cannot create target root").Fatal().Build()
		wrapped := fmt.Errorf("collect: %w", err)

		if _, ok := AsClassified(wrapped); !ok {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryFileSystem) {
			t.Error("expected filesystem category through wrapping")
		}
		if !errors.Is(wrapped, cause) {
			t.Error("expected cause to be reachable")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Errorf("expected fatal severity, got %s", GetSeverity(wrapped))
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		if GetCategory(err) != CategoryInternal {
			t.Errorf("expected internal category, got %s", GetCategory(err))
		}
		if GetSeverity(err) != SeverityError {
			t.Errorf("expected error severity, got %s", GetSeverity(err))
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := CollisionError("target path collision").Build()
		derived := base.WithContext("target", "modules/a_b.md")
		if _, ok := base.Context().GetString("target"); ok {
			t.Error("original context was mutated")
		}
		if v, _ := derived.Context().GetString("target"); v != "modules/a_b.md" {
			t.Errorf("derived context missing target, got %q", v)
		}
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal},
		{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal},
		{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError},
		{"CollisionError", CollisionError("test"), CategoryCollision, SeverityFatal},
		{"GitError", GitError("test"), CategoryGit, SeverityError},
		{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			if err.Category() != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category())
			}
			if err.Severity() != tt.severity {
				t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := WrapError(errors.New("permission denied"), CategoryFileSystem, "cannot create target root").Build()
	if got, want := err.Error(), "filesystem: cannot create target root: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := ConfigError("bad").Build().Error(); got != "config: bad" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestAttrsAreSorted(t *testing.T) {
	err := CollisionError("duplicate target").
		WithContext("target", "modules/a_b.md").
		WithContext("source", "a/b/README.md").
		Build()

	attrs := err.Attrs()
	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	if got := fmt.Sprint(keys); got != "[category source target]" {
		t.Errorf("attr keys = %s", got)
	}
}
