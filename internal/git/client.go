package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/retry"
)

// Source describes a repository to fetch.
type Source struct {
	// Name is the workspace subdirectory the clone lands in.
	Name   string
	URL    string
	Branch string
	// Depth limits history; 0 clones in full. Ignored for local paths.
	Depth    int
	Username string
	Token    string
}

// Result describes a completed fetch.
type Result struct {
	Path     string
	Commit   string
	Branch   string
	Duration time.Duration
}

// Client performs fetches into a workspace directory.
type Client struct {
	workspaceDir string
	policy       retry.Policy
	progress     io.Writer
}

// NewClient creates a client cloning below workspaceDir. Retries are off until
// WithRetryPolicy is called.
func NewClient(workspaceDir string) *Client {
	return &Client{workspaceDir: workspaceDir, policy: retry.NewPolicy(retry.BackoffLinear, 0, 0, 0)}
}

// WithRetryPolicy sets the policy for transient failures (fluent helper).
func (c *Client) WithRetryPolicy(p retry.Policy) *Client { c.policy = p; return c }

// WithProgress streams go-git progress output to w (fluent helper).
func (c *Client) WithProgress(w io.Writer) *Client { c.progress = w; return c }

// Fetch clones src into the workspace, replacing any previous checkout.
func (c *Client) Fetch(ctx context.Context, src Source) (Result, error) {
	if src.Name == "" {
		src.Name = "source"
	}
	start := time.Now()
	var res Result
	err := c.policy.Do(ctx,
		func() error {
			var err error
			res, err = c.cloneOnce(ctx, src)
			return err
		},
		IsPermanent,
		func(attempt int, err error) {
			slog.Warn("Retrying git fetch", logfields.URL(src.URL), slog.Int("attempt", attempt), logfields.Error(err))
		})
	if err != nil {
		return Result{}, ClassifyGitError(err, "clone", src.URL)
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (c *Client) cloneOnce(ctx context.Context, src Source) (Result, error) {
	repoPath := filepath.Join(c.workspaceDir, src.Name)
	slog.Debug("Cloning repository", logfields.URL(src.URL), slog.String("branch", src.Branch), logfields.Path(repoPath))
	if err := os.RemoveAll(repoPath); err != nil {
		return Result{}, fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{URL: src.URL, Progress: c.progress, Tags: git.NoTags}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}
	// The file transport serves no shallow packs.
	if src.Depth > 0 && !isLocal(src.URL) {
		opts.Depth = src.Depth
	}
	if auth := authFor(src); auth != nil {
		opts.Auth = auth
	}

	repository, err := git.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		_ = os.RemoveAll(repoPath)
		return Result{}, err
	}
	res := Result{Path: repoPath}
	if ref, herr := repository.Head(); herr == nil {
		res.Commit = ref.Hash().String()
		if ref.Name().IsBranch() {
			res.Branch = ref.Name().Short()
		}
	}
	slog.Info("Repository cloned", logfields.URL(src.URL), logfields.Path(repoPath), slog.String("commit", shortHash(res.Commit)))
	return res, nil
}

func authFor(src Source) transport.AuthMethod {
	if src.Token == "" {
		return nil
	}
	user := src.Username
	if user == "" {
		user = "git"
	}
	return &githttp.BasicAuth{Username: user, Password: src.Token}
}

// isLocal reports URLs that go-git resolves through the file transport.
func isLocal(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return true
	}
	ep, err := transport.NewEndpoint(url)
	return err == nil && ep.Protocol == "file"
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
