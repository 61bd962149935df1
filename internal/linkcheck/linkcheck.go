// Package linkcheck verifies that the relative links of a generated documentation tree
// resolve to files inside it.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/linkrewrite"
	"git.home.luguber.info/inful/docweave/internal/logfields"
)

// ReportFile is written into the checked tree when issues are found.
const ReportFile = "link-check-report.md"

// ErrRootNotFound indicates the tree to check does not exist.
var ErrRootNotFound = errors.New("link check root not found")

// Issue is one unresolved link.
type Issue struct {
	Source string
	Line   int
	Link   string
	Reason string
}

// Report summarizes a check.
type Report struct {
	Checked time.Time
	Files   int
	Links   int
	Issues  []Issue
	// Errors lists files that could not be read or parsed.
	Errors []string
}

// OK reports whether every link resolved and every file was readable.
func (r *Report) OK() bool { return len(r.Issues) == 0 && len(r.Errors) == 0 }

// Options configures a Checker.
type Options struct {
	// Base is the site prefix of root-absolute links, e.g. "docs" for "/docs/x.md".
	Base string
	// ExcludeDirs are globs matched against directory base names.
	ExcludeDirs []string
	Now         func() time.Time
}

// Checker walks a documentation tree and validates its links.
type Checker struct {
	root    string
	base    string
	exclude []glob.Glob
	now     func() time.Time
}

// New returns a Checker for root.
func New(root string, opts Options) (*Checker, error) {
	c := &Checker{root: root, base: strings.Trim(opts.Base, "/"), now: opts.Now}
	if c.now == nil {
		c.now = time.Now
	}
	for _, p := range opts.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, ferrors.ValidationError(fmt.Sprintf("invalid exclude pattern %q", p)).WithCause(err).Build()
		}
		c.exclude = append(c.exclude, g)
	}
	return c, nil
}

// Check validates every .md and .html file under the root.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	if info, err := os.Stat(c.root); err != nil || !info.IsDir() {
		return nil, ferrors.FileSystemError("documentation root is not accessible").
			WithCause(fmt.Errorf("%w: %s", ErrRootNotFound, c.root)).
			WithContext("path", c.root).Fatal().Build()
	}

	report := &Report{Checked: c.now()}
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", p, walkErr))
			return nil
		}
		if d.IsDir() {
			if p != c.root && c.excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".md" && ext != ".html" {
			return nil
		}
		rel, _ := filepath.Rel(c.root, p)
		c.checkFile(filepath.ToSlash(rel), p, ext, report)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(report.Issues, func(i, j int) bool {
		if report.Issues[i].Source != report.Issues[j].Source {
			return report.Issues[i].Source < report.Issues[j].Source
		}
		return report.Issues[i].Line < report.Issues[j].Line
	})
	slog.Info("Link check complete",
		logfields.Count(report.Links),
		logfields.Failed(len(report.Issues)),
		slog.Int("files", report.Files))
	return report, nil
}

func (c *Checker) excluded(name string) bool {
	for _, g := range c.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (c *Checker) checkFile(rel, abs, ext string, report *Report) {
	content, err := os.ReadFile(abs)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", rel, err))
		return
	}
	var links []string
	if ext == ".md" {
		links, err = markdownLinks(content)
	} else {
		links, err = htmlLinks(content)
	}
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", rel, err))
		return
	}
	report.Files++
	for _, link := range links {
		if skip(link) {
			continue
		}
		report.Links++
		if reason, ok := c.Resolve(link, rel); !ok {
			report.Issues = append(report.Issues, Issue{Source: rel, Line: lineOf(content, link), Link: link, Reason: reason})
			slog.Debug("Broken link", logfields.Source(rel), logfields.URL(link))
		}
	}
}

// skip reports links that are not checked: external, protocol-relative and same-page anchors.
func skip(link string) bool {
	return link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(link, "//") || linkrewrite.HasScheme(link)
}

// Resolve checks link as it appears in the document at sourceRel. Root-absolute links
// resolve against the tree root after stripping Base; others against the document's
// directory. A missing target is retried with ".md" appended.
func (c *Checker) Resolve(link, sourceRel string) (string, bool) {
	p := link
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "", true
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}

	var target string
	if strings.HasPrefix(p, "/") {
		trimmed := strings.TrimPrefix(p, "/")
		if c.base != "" {
			if trimmed == c.base {
				trimmed = ""
			} else {
				trimmed = strings.TrimPrefix(trimmed, c.base+"/")
			}
		}
		target = path.Clean("/" + trimmed)[1:]
	} else {
		target = path.Join(path.Dir(sourceRel), p)
	}
	if target == ".." || strings.HasPrefix(target, "../") {
		return "target escapes the documentation root: " + target, false
	}

	abs := filepath.Join(c.root, filepath.FromSlash(target))
	if _, err := os.Stat(abs); err == nil {
		return "", true
	}
	if _, err := os.Stat(abs + ".md"); err == nil {
		return "", true
	}
	return "file does not exist: " + target, false
}

// Markdown renders the report document.
func (r *Report) Markdown() []byte {
	var b strings.Builder
	b.WriteString("# Link Check Report\n\n")
	fmt.Fprintf(&b, "Checked at: %s\n\n", r.Checked.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Files: %d, links: %d, issues: %d\n", r.Files, r.Links, len(r.Issues))
	if len(r.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(r.Issues) > 0 {
		b.WriteString("\n## Broken Links\n")
		current := ""
		for _, is := range r.Issues {
			if is.Source != current {
				current = is.Source
				fmt.Fprintf(&b, "\n### %s\n\n", current)
			}
			fmt.Fprintf(&b, "- line %d: `%s` → %s\n", is.Line, is.Link, is.Reason)
		}
	}
	return []byte(b.String())
}

// WriteReport stores the report in dir when it holds issues or errors. It returns the
// written path, or "" when the tree was clean.
func (r *Report) WriteReport(dir string) (string, error) {
	if r.OK() {
		return "", nil
	}
	dest := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(dest, r.Markdown(), 0o600); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write link check report").
			WithContext("path", dest).Build()
	}
	return dest, nil
}
