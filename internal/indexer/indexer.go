// Package indexer walks the target documentation tree and builds the categorized
// document model consumed by the sidebar, docs index and sitemap writers.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/inful/mdfp"
	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/frontmatter"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// ErrTargetRootNotFound indicates the documentation tree to index does not exist.
var ErrTargetRootNotFound = errors.New("target root not found")

const summaryLimit = 200

// Document is one indexed file of the target tree.
type Document struct {
	Path           string            `json:"path"`
	Title          string            `json:"title"`
	Category       taxonomy.Category `json:"category"`
	Order          int               `json:"order"`
	Sections       []string          `json:"sections,omitempty"`
	Summary        string            `json:"summary"`
	Tags           []string          `json:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Size           int64             `json:"size"`
	Modified       time.Time         `json:"modified"`
	Fingerprint    string            `json:"fingerprint"`
	WordCount      int               `json:"word_count"`
	ReadingMinutes int               `json:"reading_time"`
}

// Options configures an Indexer.
type Options struct {
	// Locale drives title casing and title ordering. Defaults to language.Und.
	Locale language.Tag
	// ExcludeDirs are globs matched against directory base names.
	ExcludeDirs []string
	// ExcludeFiles are globs matched against file base names.
	ExcludeFiles []string
	// Now stamps the index. Defaults to time.Now.
	Now func() time.Time
}

// DefaultExcludeDirs are skipped while walking the target tree.
func DefaultExcludeDirs() []string { return []string{"_media", "assets", ".git", "node_modules"} }

// DefaultExcludeFiles are never indexed: navigation partials and the 404 page.
func DefaultExcludeFiles() []string { return []string{"_*", "404.md"} }

// Indexer extracts titles and structure from the target tree.
type Indexer struct {
	root         string
	tax          taxonomy.Taxonomy
	locale       language.Tag
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	now          func() time.Time
}

// New creates an Indexer for the tree at root.
func New(root string, tax taxonomy.Taxonomy, opts Options) (*Indexer, error) {
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs()
	}
	if opts.ExcludeFiles == nil {
		opts.ExcludeFiles = DefaultExcludeFiles()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ix := &Indexer{root: root, tax: tax, locale: opts.Locale, now: opts.Now}
	var err error
	if ix.excludeDirs, err = compileAll(opts.ExcludeDirs); err != nil {
		return nil, err
	}
	if ix.excludeFiles, err = compileAll(opts.ExcludeFiles); err != nil {
		return nil, err
	}
	return ix, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid index exclusion pattern").
				Fatal().WithContext("pattern", p).Build()
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(gs []glob.Glob, name string) bool {
	for _, g := range gs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Index is the result of a walk.
type Index struct {
	Generated time.Time
	// Documents sorted by path.
	Documents []Document
	// Failed counts files that could not be read.
	Failed int
}

// InCategory returns the documents of a category in path order.
func (idx *Index) InCategory(c taxonomy.Category) []Document {
	out := make([]Document, 0)
	for _, d := range idx.Documents {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the document at a target-relative path.
func (idx *Index) Lookup(p string) (Document, bool) {
	i := sort.Search(len(idx.Documents), func(i int) bool { return idx.Documents[i].Path >= p })
	if i < len(idx.Documents) && idx.Documents[i].Path == p {
		return idx.Documents[i], true
	}
	return Document{}, false
}

// Index walks the tree and analyzes every Markdown file. Unreadable files are logged,
// counted and skipped; an inaccessible root is fatal.
func (ix *Indexer) Index(ctx context.Context) (*Index, error) {
	if info, err := os.Stat(ix.root); err != nil || !info.IsDir() {
		cause := err
		if cause == nil {
			cause = fmt.Errorf("%s is not a directory", ix.root)
		}
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrTargetRootNotFound, cause), ferrors.CategoryFileSystem, "target root is not accessible").
			Fatal().WithContext("path", ix.root).Build()
	}

	idx := &Index{Generated: ix.now()}
	err := filepath.WalkDir(ix.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == ix.root {
				return err
			}
			idx.Failed++
			slog.Warn("Skipping unreadable path", logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != ix.root && matchesAny(ix.excludeDirs, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") || matchesAny(ix.excludeFiles, d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(ix.root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		content, readErr := os.ReadFile(p)
		if readErr != nil {
			idx.Failed++
			slog.Warn("Failed to read document", logfields.Path(rel), logfields.Error(readErr))
			return nil
		}
		doc := ix.Analyze(rel, content)
		if info, statErr := d.Info(); statErr == nil {
			doc.Size = info.Size()
			doc.Modified = info.ModTime().UTC()
		}
		idx.Documents = append(idx.Documents, doc)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk target tree").
			Fatal().WithContext("path", ix.root).Build()
	}

	sort.Slice(idx.Documents, func(i, j int) bool { return idx.Documents[i].Path < idx.Documents[j].Path })
	return idx, nil
}

// Analyze builds the Document for content found at the target-relative path rel.
// Size and Modified are left to the caller.
func (ix *Indexer) Analyze(rel string, content []byte) Document {
	rel = normalizePath(rel)
	fields, body, err := frontmatter.Read(content)
	if err != nil {
		slog.Debug("Ignoring malformed frontmatter", logfields.Path(rel), logfields.Error(err))
	}

	doc := Document{
		Path:     rel,
		Title:    ix.ExtractTitle(content, path.Base(rel)),
		Category: ix.Categorize(rel),
		Order:    ix.OrderWeight(rel),
		Metadata: fields.Flatten(),
	}
	if len(doc.Metadata) == 0 {
		doc.Metadata = nil
	}

	if headings, err := markdown.ExtractHeadings(body, markdown.Options{}); err == nil {
		for _, h := range headings {
			if h.Level == 2 {
				doc.Sections = append(doc.Sections, h.Text)
			}
		}
	}

	doc.Summary = truncateRunes(markdown.PlainText(body, markdown.Options{}), summaryLimit)
	doc.Tags = extractTags(fields, body)
	doc.WordCount = len(strings.Fields(string(body)))
	doc.ReadingMinutes = readingMinutes(body)

	fm := ""
	if raw, _, had, splitErr := frontmatter.Split(content); splitErr == nil && had {
		fm = strings.TrimSuffix(string(raw), "\n")
	}
	doc.Fingerprint = mdfp.CalculateFingerprintFromParts(fm, string(body))
	return doc
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit])) + "..."
}

// readingMinutes estimates reading time at 300 CJK characters or 200 Latin words per minute.
func readingMinutes(body []byte) int {
	han, words := 0, 0
	inWord := false
	for _, r := range string(body) {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
			inWord = false
		case r < utf8.RuneSelf && unicode.IsLetter(r):
			if !inWord {
				words++
			}
			inWord = true
		default:
			inWord = false
		}
	}
	minutes := int(float64(han)/300 + float64(words)/200 + 0.5)
	return max(minutes, 1)
}

// extractTags merges frontmatter tags with inline [tag:x] markers and [module:<status>]
// markers. The result is deduplicated and sorted.
func extractTags(fields frontmatter.Fields, body []byte) []string {
	set := make(map[string]struct{})
	for _, t := range fields.Tags() {
		set[t] = struct{}{}
	}
	text := string(body)
	for _, v := range bracketMarkers(text, "tag") {
		set[v] = struct{}{}
	}
	for _, v := range bracketMarkers(text, "module") {
		if s := taxonomy.ParseStatus(v); s != taxonomy.StatusUnknown {
			set[string(s)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// bracketMarkers returns the values of every "[key:value]" marker in text.
func bracketMarkers(text, key string) []string {
	prefix := "[" + key + ":"
	var out []string
	for {
		i := strings.Index(text, prefix)
		if i < 0 {
			return out
		}
		text = text[i+len(prefix):]
		end := strings.IndexAny(text, "]\n")
		if end < 0 {
			return out
		}
		if text[end] == ']' {
			if v := strings.TrimSpace(text[:end]); v != "" {
				out = append(out, v)
			}
		}
		text = text[end:]
	}
}
