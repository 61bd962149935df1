// Package sitemap renders the human sitemap (sitemap.md) and the search-engine sitemap
// (sitemap.xml) from a document index.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/indexer"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

const (
	MarkdownFile = "sitemap.md"
	XMLFile      = "sitemap.xml"

	xmlns           = "http://www.sitemaps.org/schemas/sitemap/0.9"
	changeFrequency = "weekly"
	priority        = "0.8"
)

// Options configures a Generator.
type Options struct {
	// BaseURL prefixes every <loc>; a trailing slash is ignored.
	BaseURL string
	// TagLimit caps the entries listed per tag. Zero means 5.
	TagLimit int
}

// Generator renders sitemaps.
type Generator struct {
	base     string
	tagLimit int
}

// New returns a Generator.
func New(opts Options) *Generator {
	limit := opts.TagLimit
	if limit <= 0 {
		limit = 5
	}
	return &Generator{base: strings.TrimRight(opts.BaseURL, "/"), tagLimit: limit}
}

// Markdown renders sitemap.md: core documents, modules grouped by module, api, examples,
// then the tag index.
func (g *Generator) Markdown(idx *indexer.Index) []byte {
	cat := idx.Catalogue()
	var b strings.Builder
	b.WriteString("# Sitemap\n")

	item := func(d indexer.Document) {
		fmt.Fprintf(&b, "- [%s](/%s)\n", d.Title, d.Path)
	}

	var core []indexer.Document
	for _, d := range idx.Documents {
		switch d.Category {
		case taxonomy.CategoryMain, taxonomy.CategoryOthers:
			core = append(core, d)
		}
	}
	if len(core) > 0 {
		b.WriteString("\n## Core Documentation\n\n")
		for _, d := range core {
			item(d)
		}
	}

	if len(cat.Modules) > 0 {
		b.WriteString("\n## Modules\n")
		for _, name := range sortedKeys(cat.Modules) {
			fmt.Fprintf(&b, "\n### %s\n\n", name)
			for _, p := range cat.Modules[name] {
				item(cat.Documents[p])
			}
		}
	}

	for _, sec := range []struct {
		title string
		cat   taxonomy.Category
	}{
		{"API Reference", taxonomy.CategoryAPI},
		{"Examples", taxonomy.CategoryExamples},
	} {
		paths := cat.Categories[sec.cat]
		if len(paths) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", sec.title)
		for _, p := range paths {
			item(cat.Documents[p])
		}
	}

	if len(cat.Tags) > 0 {
		b.WriteString("\n## Tags\n")
		for _, tag := range cat.TagNames() {
			entries := cat.Tags[tag]
			fmt.Fprintf(&b, "\n### %s (%d)\n\n", tag, len(entries))
			for i, e := range entries {
				if i == g.tagLimit {
					fmt.Fprintf(&b, "- …and %d more\n", len(entries)-g.tagLimit)
					break
				}
				fmt.Fprintf(&b, "- [%s](/%s)\n", e.Title, e.Path)
			}
		}
	}
	return []byte(b.String())
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Loc returns the sitemap location of a document path.
func (g *Generator) Loc(docPath string) string {
	return g.base + "/#" + strings.TrimSuffix(docPath, ".md")
}

// XML renders sitemap.xml with one <url> per document in path order.
func (g *Generator) XML(idx *indexer.Index) ([]byte, error) {
	set := urlSet{Xmlns: xmlns, URLs: make([]entry, 0, len(idx.Documents))}
	for _, d := range idx.Documents {
		u := entry{Loc: g.Loc(d.Path), ChangeFreq: changeFrequency, Priority: priority}
		if !d.Modified.IsZero() {
			u.LastMod = d.Modified.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode sitemap").Build()
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Write renders both sitemaps into dir. An empty mdName or xmlName skips that file.
func (g *Generator) Write(idx *indexer.Index, dir, mdName, xmlName string) error {
	if mdName != "" {
		if err := writeFile(filepath.Join(dir, mdName), g.Markdown(idx)); err != nil {
			return err
		}
	}
	if xmlName != "" {
		data, err := g.XML(idx)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, xmlName), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create sitemap directory").
			WithContext("path", dest).Build()
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write sitemap").
			WithContext("path", dest).Build()
	}
	return nil
}

func sortedKeys(m map[string][]string) []string {
	return slices.Sorted(maps.Keys(m))
}
