// Package sidebar renders the navigation document from the document index and the
// module inventory. The output is regenerated in full on every run.
package sidebar

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/indexer"
	"git.home.luguber.info/inful/docweave/internal/modmeta"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// FileName is the conventional sidebar file name inside the target tree.
const FileName = "_sidebar.md"

// Synthesizer renders sidebars.
type Synthesizer struct {
	tax    taxonomy.Taxonomy
	layout Layout
	now    func() time.Time
}

// New returns a Synthesizer. A nil now uses time.Now.
func New(tax taxonomy.Taxonomy, layout Layout, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	if layout.HomePath == "" {
		layout.HomePath = "/"
	}
	return &Synthesizer{tax: tax, layout: layout, now: now}
}

// Render produces the sidebar lines. inv may be nil; when it holds modules, the modules
// block is grouped by status with badges.
func (s *Synthesizer) Render(idx *indexer.Index, inv *modmeta.Inventory) []string {
	sorter := indexer.NewSorter(s.layout.Locale)
	lines := []string{
		"<!-- " + FileName + " -->",
		"<!-- generated file, do not edit manually -->",
		"<!-- generated at: " + s.now().UTC().Format(time.RFC3339) + " -->",
		"",
		fmt.Sprintf("* [%s](%s)", s.layout.HomeTitle, s.layout.HomePath),
		"",
	}

	byCat := make(map[taxonomy.Category][]indexer.Document)
	var guides []indexer.Document
	for _, d := range idx.Documents {
		byCat[d.Category] = append(byCat[d.Category], d)
		if d.Category != taxonomy.CategoryMain && s.tax.IsGuide(d.Path) {
			guides = append(guides, d)
		}
	}

	emit := func(title string, docs []indexer.Document) {
		if len(docs) == 0 {
			return
		}
		lines = append(lines, "* **"+title+"**")
		for _, d := range docs {
			lines = append(lines, fmt.Sprintf("  * [%s](%s)", escapeText(d.Title), d.Path))
		}
		lines = append(lines, "")
	}

	main := byCat[taxonomy.CategoryMain]
	sorter.SortCategory(main, taxonomy.CategoryMain)
	emit(s.layout.heading(string(taxonomy.CategoryMain)), main)

	sorter.Sort(guides, taxonomy.ByOrderWeight)
	emit(s.layout.heading(GuidesHeading), guides)

	for _, c := range []taxonomy.Category{taxonomy.CategoryAPI, taxonomy.CategoryModules, taxonomy.CategoryExamples, taxonomy.CategoryOthers} {
		docs := byCat[c]
		sorter.SortCategory(docs, c)
		if c == taxonomy.CategoryModules && !inv.Empty() && len(docs) > 0 {
			lines = append(lines, s.renderModules(docs, inv, sorter)...)
			continue
		}
		emit(s.layout.heading(string(c)), docs)
	}

	for _, sec := range s.layout.Static {
		lines = appendSection(lines, sec)
	}
	lines = appendSection(lines, s.layout.External)

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type moduleEntry struct {
	doc    indexer.Document
	name   string
	icon   string
	status taxonomy.Status
}

func (s *Synthesizer) renderModules(docs []indexer.Document, inv *modmeta.Inventory, sorter *indexer.Sorter) []string {
	entries := make([]moduleEntry, 0, len(docs))
	for _, d := range docs {
		key := strings.TrimSuffix(path.Base(d.Path), path.Ext(d.Path))
		e := moduleEntry{doc: d}
		if rec, ok := inv.Lookup(key); ok {
			e.name, e.icon, e.status = rec.Name, rec.Icon, rec.Status
		} else {
			generic, _ := s.tax.Module(key)
			e.name, e.icon, e.status = d.Title, generic.Icon, taxonomy.StatusExperimental
		}
		if e.name == "" {
			e.name = d.Title
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return s.moduleLess(entries[i], entries[j], sorter)
	})

	out := []string{"* **" + s.layout.heading(string(taxonomy.CategoryModules)) + "**"}
	for _, e := range entries {
		line := fmt.Sprintf("  * %s [%s](%s)", e.icon, escapeText(e.name), e.doc.Path)
		if badge := s.badge(e.status); badge != "" {
			line += " " + badge
		}
		out = append(out, strings.TrimRight(line, " "))
		if e.status == taxonomy.StatusStable {
			for i, sec := range e.doc.Sections {
				if i >= s.layout.MaxStableSections {
					break
				}
				out = append(out, fmt.Sprintf("    * [%s](%s#%s)", escapeText(sec), e.doc.Path, Slug(sec)))
			}
		}
	}
	return append(out, "")
}

func (s *Synthesizer) moduleLess(a, b moduleEntry, sorter *indexer.Sorter) bool {
	if pa, pb := a.status.Priority(), b.status.Priority(); pa != pb {
		return pa < pb
	}
	if c := sorter.CompareTitles(a.name, b.name); c != 0 {
		return c < 0
	}
	return a.doc.Path < b.doc.Path
}

func (s *Synthesizer) badge(status taxonomy.Status) string {
	label := s.tax.StatusLabel(status)
	if label == "" {
		return ""
	}
	return fmt.Sprintf(`<span class="module-badge badge-%s">%s</span>`, status, label)
}

func appendSection(lines []string, sec Section) []string {
	if len(sec.Links) == 0 {
		return lines
	}
	lines = append(lines, "* **"+sec.Title+"**")
	for _, l := range sec.Links {
		lines = append(lines, fmt.Sprintf("  * [%s](%s)", escapeText(l.Title), l.Path))
	}
	return append(lines, "")
}

// Slug turns a heading into the anchor used by the docs site: lower case, whitespace runs
// collapsed to "-", then percent-encoded like a URI component.
func Slug(heading string) string {
	return escapeComponent(strings.Join(strings.Fields(strings.ToLower(heading)), "-"))
}

// escapeComponent percent-encodes every byte except ASCII letters, digits and -_.!~*'().
func escapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte("-_.!~*'()", c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func escapeText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

// Write stores lines at dest, newline-terminated, replacing any previous sidebar.
func Write(dest string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create sidebar directory").
			WithContext("path", dest).Build()
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(dest, []byte(content), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write sidebar").
			WithContext("path", dest).Build()
	}
	return nil
}
