package git

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	builder := ferrors.GitError("git operation failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url)

	l := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		builder.WithContext("canceled", true)
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication failed"), strings.Contains(l, "invalid credentials"):
		builder.WithContext("auth", true)
	case errors.Is(err, transport.ErrRepositoryNotFound), strings.Contains(l, "repository not found"),
		strings.Contains(l, "couldn't find remote ref"), strings.Contains(l, "reference not found"):
		builder.WithCategory(ferrors.CategoryNotFound)
	case strings.Contains(l, "unsupported protocol"), strings.Contains(l, "protocol not supported"):
		builder.WithCategory(ferrors.CategoryConfig)
	case isNetwork(err, l):
		builder.WithCategory(ferrors.CategoryNetwork)
	}
	return builder.Build()
}

// IsPermanent reports errors a retry cannot fix: authentication, missing repositories or
// refs, unsupported protocols and cancellation.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound) {
		return true
	}
	l := strings.ToLower(err.Error())
	for _, s := range []string{"auth", "permission", "denied", "not found", "couldn't find remote ref", "no such remote", "invalid reference", "unsupported protocol"} {
		if strings.Contains(l, s) {
			return true
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

func isNetwork(err error, lower string) bool {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	for _, s := range []string{"remote hung up", "connection reset", "connection refused", "timeout", "no route to host", "no such host"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
