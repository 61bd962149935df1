// Package linkrewrite rewrites relative Markdown links and images so they keep resolving
// after a document moves from its source directory into the target namespace.
package linkrewrite

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docweave/internal/foundation/normalization"
	"git.home.luguber.info/inful/docweave/internal/markdown"
)

// Mode selects how rewritten destinations are expressed.
type Mode string

const (
	// ModeRelative ascends one level and descends into the source directory:
	// "y.md" in foo/bar becomes "../foo/bar/y.md". Applying it twice double-prefixes.
	ModeRelative Mode = "relative"
	// ModeAbsolute resolves to a root-absolute path: "y.md" in foo/bar becomes
	// "/<base>/foo/bar/y.md". Rooted links are never touched, so it is idempotent.
	ModeAbsolute Mode = "absolute"
)

var modeNormalizer = normalization.NewNormalizer(map[string]Mode{
	"relative": ModeRelative,
	"absolute": ModeAbsolute,
}, ModeRelative)

// ParseMode normalizes a configured mode; empty input yields ModeRelative.
func ParseMode(raw string) (Mode, error) {
	return modeNormalizer.NormalizeWithError(raw)
}

// Rewriter rewrites link destinations. The zero value rewrites in relative mode.
type Rewriter struct {
	Mode Mode
	// Base prefixes destinations in absolute mode, e.g. "/source". Empty means "/".
	Base string
	// DocExtension is the extension that marks a link as a document link. Defaults to ".md".
	DocExtension string
}

// New returns a Rewriter for the given mode and absolute base.
func New(mode Mode, base string) Rewriter {
	return Rewriter{Mode: mode, Base: base, DocExtension: ".md"}
}

// Rewrite returns content with every eligible link and image destination rewritten relative
// to sourceDir, the document's original slash-separated directory ("" or "." for the root).
func (r Rewriter) Rewrite(content, sourceDir string) string {
	src := []byte(content)
	edits := r.Edits(src, sourceDir)
	if len(edits) == 0 {
		return content
	}
	out, err := markdown.ApplyEdits(src, edits)
	if err != nil {
		// Tokens never overlap; keep the original text rather than emit a partial rewrite.
		return content
	}
	return string(out)
}

// Edits returns the byte-range replacements Rewrite would apply.
func (r Rewriter) Edits(content []byte, sourceDir string) []markdown.Edit {
	tokens := markdown.ScanLinks(content)
	edits := make([]markdown.Edit, 0, len(tokens))
	for _, tok := range tokens {
		if !r.eligible(tok) {
			continue
		}
		next := r.resolve(tok.Destination, sourceDir)
		if next == tok.Destination {
			continue
		}
		edits = append(edits, markdown.Edit{Start: tok.Start, End: tok.End, Replacement: []byte(next)})
	}
	return edits
}

func (r Rewriter) eligible(tok markdown.LinkToken) bool {
	dest := strings.TrimSpace(tok.Destination)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") || HasScheme(dest) {
		return false
	}
	if tok.Kind == markdown.LinkKindImage {
		return true
	}
	p, _ := splitSuffix(dest)
	return strings.HasSuffix(strings.ToLower(p), r.docExtension())
}

func (r Rewriter) docExtension() string {
	if r.DocExtension == "" {
		return ".md"
	}
	return strings.ToLower(r.DocExtension)
}

func (r Rewriter) resolve(dest, sourceDir string) string {
	p, suffix := splitSuffix(dest)
	dir := cleanDir(sourceDir)

	switch r.Mode {
	case ModeAbsolute:
		base := r.Base
		if base == "" {
			base = "/"
		}
		return path.Join("/", base, dir, p) + suffix
	default:
		return path.Join("..", dir, p) + suffix
	}
}

// HasScheme reports whether dest starts with a URI scheme such as "https:" or "mailto:".
func HasScheme(dest string) bool {
	for i := 0; i < len(dest); i++ {
		c := dest[i]
		switch {
		case c == ':':
			return i > 0
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return false
}

// splitSuffix separates a destination into its path and its "?query#fragment" suffix.
func splitSuffix(dest string) (string, string) {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}

func cleanDir(dir string) string {
	dir = strings.Trim(strings.ReplaceAll(dir, "\\", "/"), "/")
	if dir == "." {
		return ""
	}
	return dir
}
