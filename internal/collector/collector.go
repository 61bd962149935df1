// Package collector gathers per-directory README fragments from a source tree and
// materializes annotated copies in the flattened target tree.
package collector

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/frontmatter"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/pathmap"
)

// SourceDocument is a documentation file found in the source tree.
type SourceDocument struct {
	OriginalPath string // absolute path on disk
	RelativePath string // slash-separated, relative to the source root
	Directory    string // slash-separated directory of RelativePath, "" at the root
	Filename     string
}

// Collector walks a source tree and writes target documents.
type Collector struct {
	opts     Options
	patterns []glob.Glob
	exclude  []glob.Glob
	// target root relative to the source root, "" when it lies outside.
	targetRel string
}

// New validates options and compiles patterns.
func New(opts Options) (*Collector, error) {
	if opts.SourceRoot == "" || opts.TargetRoot == "" {
		return nil, ferrors.ValidationError("source and target roots are required").Build()
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns()
	}
	if opts.Exclude == nil {
		opts.Exclude = DefaultExclude()
	}
	if opts.TitleMode == "" {
		opts.TitleMode = TitleAlways
	}
	if opts.Mapper == (pathmap.Mapper{}) {
		opts.Mapper = pathmap.New()
	}

	c := &Collector{opts: opts}
	for _, p := range opts.Patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, ferrors.WrapError(fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err), ferrors.CategoryValidation, "invalid documentation pattern").
				Fatal().WithContext("pattern", p).Build()
		}
		c.patterns = append(c.patterns, g)
	}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, ferrors.WrapError(fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err), ferrors.CategoryValidation, "invalid exclusion pattern").
				Fatal().WithContext("pattern", p).Build()
		}
		c.exclude = append(c.exclude, g)
	}

	srcAbs, err1 := filepath.Abs(opts.SourceRoot)
	tgtAbs, err2 := filepath.Abs(opts.TargetRoot)
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(srcAbs, tgtAbs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			c.targetRel = filepath.ToSlash(rel)
		}
	}
	return c, nil
}

// Options returns the effective options.
func (c *Collector) Options() Options { return c.opts }

// Matches reports whether a base name is a documentation file.
func (c *Collector) Matches(name string) bool {
	for _, g := range c.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (c *Collector) excluded(rel string) bool {
	if c.targetRel != "" && (rel == c.targetRel || strings.HasPrefix(rel, c.targetRel+"/")) {
		return true
	}
	base := path.Base(rel)
	for _, g := range c.exclude {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

// Collect enumerates documentation files under the source root, sorted by relative path.
// Zero matches is not an error.
func (c *Collector) Collect(ctx context.Context) ([]SourceDocument, error) {
	root := c.opts.SourceRoot
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		cause := err
		if cause == nil {
			cause = fmt.Errorf("%s is not a directory", root)
		}
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrSourceRootNotFound, cause), ferrors.CategoryFileSystem, "source root is not accessible").
			Fatal().WithContext("path", root).Build()
	}

	docs := make([]SourceDocument, 0)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			slog.Warn("Skipping unreadable path", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && c.excluded(rel) {
				slog.Debug("Excluded directory", logfields.Path(rel))
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !c.Matches(d.Name()) {
			return nil
		}

		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		docs = append(docs, SourceDocument{
			OriginalPath: p,
			RelativePath: rel,
			Directory:    dir,
			Filename:     d.Name(),
		})
		slog.Debug("Discovered document", logfields.Source(rel))
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrSourceWalkFailed, walkErr), ferrors.CategoryFileSystem, "failed to walk source tree").
			Fatal().WithContext("path", root).Build()
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	return docs, nil
}

// IsRoot reports whether doc is the canonical document at the source root.
func (c *Collector) IsRoot(doc SourceDocument) bool {
	canonical := c.opts.Mapper.CanonicalName
	if canonical == "" {
		canonical = pathmap.DefaultCanonicalName
	}
	return doc.RelativePath == canonical
}

// Render produces the target content for doc: provenance comment, optional heading and
// the link-rewritten body. A leading frontmatter block stays first.
func (c *Collector) Render(doc SourceDocument, content []byte) []byte {
	fm, body, had, err := frontmatter.Split(content)
	if err != nil {
		had, body = false, content
	}

	rewritten := c.opts.Rewriter.Rewrite(string(body), doc.Directory)

	var b strings.Builder
	b.Grow(len(content) + 64)
	if had {
		b.WriteString("---\n")
		b.Write(fm)
		b.WriteString("---\n")
	}
	fmt.Fprintf(&b, "<!-- source: %s -->\n", doc.RelativePath)
	if heading, ok := c.injectedHeading(doc, rewritten); ok {
		fmt.Fprintf(&b, "# %s\n\n", heading)
	}
	b.WriteString(rewritten)
	return []byte(b.String())
}

func (c *Collector) injectedHeading(doc SourceDocument, body string) (string, bool) {
	if c.IsRoot(doc) || doc.Directory == "" {
		return "", false
	}
	switch c.opts.TitleMode {
	case TitleNever:
		return "", false
	case TitleMissing:
		if _, found := markdown.FirstHeading([]byte(body), 1); found {
			return "", false
		}
	}
	return path.Base(doc.Directory), true
}

// Materialize reads doc, renders it and writes it to targetRel under the target root.
func (c *Collector) Materialize(doc SourceDocument, targetRel string) error {
	content, err := os.ReadFile(doc.OriginalPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFailed, doc.RelativePath, err)
	}
	dest := filepath.Join(c.opts.TargetRoot, filepath.FromSlash(targetRel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, targetRel, err)
	}
	if err := os.WriteFile(dest, c.Render(doc, content), 0o600); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, targetRel, err)
	}
	return nil
}

// MaterializeAll maps and writes every document. A path collision or an uncreatable
// target root aborts the batch; per-document failures are logged and counted.
func (c *Collector) MaterializeAll(ctx context.Context, docs []SourceDocument) (Summary, error) {
	rels := make([]string, len(docs))
	for i, d := range docs {
		rels[i] = d.RelativePath
	}
	mappings, err := c.opts.Mapper.MapAll(rels)
	if err != nil {
		return Summary{}, err
	}
	targets := make(map[string]string, len(mappings))
	for _, m := range mappings {
		targets[m.SourceRelativePath] = m.TargetRelativePath
	}

	if err := os.MkdirAll(c.opts.TargetRoot, 0o750); err != nil {
		return Summary{}, ferrors.WrapError(fmt.Errorf("%w: %w", ErrTargetRootCreate, err), ferrors.CategoryFileSystem, "cannot create target root").
			Fatal().WithContext("path", c.opts.TargetRoot).Build()
	}

	results := make([]error, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.opts.Workers, 1))
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.Materialize(doc, targets[doc.RelativePath])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, doc := range docs {
		if results[i] != nil {
			sum.fail(doc.RelativePath, results[i])
			slog.Error("Failed to materialize document", logfields.Source(doc.RelativePath), logfields.Error(results[i]))
			continue
		}
		sum.Processed++
		slog.Debug("Materialized document", logfields.Source(doc.RelativePath), logfields.Target(targets[doc.RelativePath]))
	}
	return sum, nil
}

// CopyAuxiliaryDocs copies top-level files such as LICENSE verbatim into the target root.
// Missing files are skipped silently; a name without extension gains ".md". When both
// LICENSE and LICENSE.md exist, the Markdown file wins.
func (c *Collector) CopyAuxiliaryDocs(names []string) Summary {
	var sum Summary
	listed := make(map[string]bool, len(names))
	for _, name := range names {
		listed[name] = true
	}
	for _, name := range names {
		src := filepath.Join(c.opts.SourceRoot, name)
		if filepath.Ext(name) == "" && listed[name+".md"] && c.auxiliaryExists(name+".md") {
			sum.Skipped++
			slog.Debug("Auxiliary document shadowed by Markdown variant", logfields.Source(name))
			continue
		}
		content, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				sum.Skipped++
				continue
			}
			sum.fail(name, fmt.Errorf("%w: %s: %w", ErrReadFailed, name, err))
			slog.Warn("Failed to read auxiliary document", logfields.Source(name), logfields.Error(err))
			continue
		}

		targetName := name
		if filepath.Ext(name) == "" {
			targetName += ".md"
		}
		dest := filepath.Join(c.opts.TargetRoot, targetName)
		err = os.MkdirAll(filepath.Dir(dest), 0o750)
		if err == nil {
			err = os.WriteFile(dest, content, 0o600)
		}
		if err != nil {
			sum.fail(name, fmt.Errorf("%w: %s: %w", ErrWriteFailed, targetName, err))
			slog.Warn("Failed to copy auxiliary document", logfields.Source(name), logfields.Error(err))
			continue
		}
		sum.Processed++
		slog.Debug("Copied auxiliary document", logfields.Source(name), logfields.Target(targetName))
	}
	return sum
}

func (c *Collector) auxiliaryExists(name string) bool {
	info, err := os.Stat(filepath.Join(c.opts.SourceRoot, name))
	return err == nil && info.Mode().IsRegular()
}
