package indexer

import (
	"path"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/docweave/internal/frontmatter"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// ExtractTitle returns the frontmatter title, else the first top-level heading, else a
// title derived from fallbackName. It never fails and never returns "" for a non-empty name.
func (ix *Indexer) ExtractTitle(content []byte, fallbackName string) string {
	fields, body, _ := frontmatter.Read(content)
	if title, ok := fields.Title(); ok {
		return title
	}
	if h1, ok := markdown.FirstHeading(body, 1); ok {
		return h1
	}
	return ix.Humanize(fallbackName)
}

// Humanize turns a file name such as "setup_guide.md" into "Setup Guide", applying the
// taxonomy's term substitutions ("api_reference" becomes "API Reference").
func (ix *Indexer) Humanize(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	if len(words) == 0 {
		return stem
	}
	caser := cases.Title(ix.locale)
	for i, w := range words {
		if term, ok := ix.tax.Term(w); ok {
			words[i] = term
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// Categorize derives the category of a target-relative path. Only the path is consulted.
func (ix *Indexer) Categorize(p string) taxonomy.Category {
	p = normalizePath(p)
	first, _, nested := strings.Cut(p, "/")
	if !nested {
		return taxonomy.CategoryMain
	}
	switch taxonomy.Category(first) {
	case taxonomy.CategoryAPI:
		return taxonomy.CategoryAPI
	case taxonomy.CategoryExamples:
		return taxonomy.CategoryExamples
	case taxonomy.CategoryModules:
		return taxonomy.CategoryModules
	default:
		return taxonomy.CategoryOthers
	}
}

// OrderWeight returns a global sort key: the category band plus the fixed priority of the
// file name (README first), so flattening all categories still yields a stable order.
func (ix *Indexer) OrderWeight(p string) int {
	p = normalizePath(p)
	base := path.Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))
	w, _ := ix.tax.RootWeight(stem)
	return ix.tax.Band(ix.Categorize(p)) + w
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}
