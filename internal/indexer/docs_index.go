package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// DocsIndexVersion is the schema version written to docs-index.json.
const DocsIndexVersion = "1.0.0"

// TagEntry references a document from the tag index.
type TagEntry struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Statistics aggregates the docs index.
type Statistics struct {
	TotalDocuments     int   `json:"total_documents"`
	TotalModules       int   `json:"total_modules"`
	TotalAPIs          int   `json:"total_apis"`
	TotalExamples      int   `json:"total_examples"`
	TotalTags          int   `json:"total_tags"`
	TotalSize          int64 `json:"total_size"`
	AverageReadingTime int   `json:"average_reading_time"`
}

// DocsIndex is the machine-readable catalogue written next to the documentation.
type DocsIndex struct {
	Version    string                         `json:"version"`
	Generated  time.Time                      `json:"generated"`
	Documents  map[string]Document            `json:"documents"`
	Categories map[taxonomy.Category][]string `json:"categories"`
	Modules    map[string][]string            `json:"modules"`
	Tags       map[string][]TagEntry          `json:"tags"`
	Statistics Statistics                     `json:"statistics"`
}

// Catalogue derives the docs index from idx.
func (idx *Index) Catalogue() DocsIndex {
	out := DocsIndex{
		Version:    DocsIndexVersion,
		Generated:  idx.Generated.UTC(),
		Documents:  make(map[string]Document, len(idx.Documents)),
		Categories: make(map[taxonomy.Category][]string),
		Modules:    make(map[string][]string),
		Tags:       make(map[string][]TagEntry),
	}

	var readingTotal int
	for _, d := range idx.Documents {
		out.Documents[d.Path] = d
		out.Categories[d.Category] = append(out.Categories[d.Category], d.Path)
		if d.Category == taxonomy.CategoryModules {
			name := moduleName(d.Path)
			out.Modules[name] = append(out.Modules[name], d.Path)
		}
		for _, tag := range d.Tags {
			out.Tags[tag] = append(out.Tags[tag], TagEntry{Path: d.Path, Title: d.Title})
		}
		out.Statistics.TotalSize += d.Size
		readingTotal += d.ReadingMinutes
	}

	s := &out.Statistics
	s.TotalDocuments = len(idx.Documents)
	s.TotalModules = len(out.Modules)
	s.TotalAPIs = len(out.Categories[taxonomy.CategoryAPI])
	s.TotalExamples = len(out.Categories[taxonomy.CategoryExamples])
	s.TotalTags = len(out.Tags)
	s.AverageReadingTime = readingTotal / max(1, len(idx.Documents))
	return out
}

// moduleName returns the module a modules/ document belongs to: the first path segment
// below modules/ without extension.
func moduleName(p string) string {
	rest := strings.TrimPrefix(p, string(taxonomy.CategoryModules)+"/")
	first, _, _ := strings.Cut(rest, "/")
	return strings.TrimSuffix(first, path.Ext(first))
}

// TagNames returns the tags of a catalogue, sorted.
func (d DocsIndex) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for t := range d.Tags {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

// WriteJSON writes the docs index to dest with two-space indentation.
func (idx *Index) WriteJSON(dest string) error {
	data, err := json.MarshalIndent(idx.Catalogue(), "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode docs index").Build()
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create docs index directory").
			WithContext("path", dest).Build()
	}
	if err := os.WriteFile(dest, append(data, '\n'), 0o600); err != nil {
		return ferrors.WrapError(fmt.Errorf("write docs index: %w", err), ferrors.CategoryFileSystem, "failed to write docs index").
			WithContext("path", dest).Build()
	}
	return nil
}
