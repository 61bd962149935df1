package indexer

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// Sorter orders documents inside a category. It holds a collator and is not safe for
// concurrent use.
type Sorter struct {
	col *collate.Collator
}

// NewSorter returns a Sorter comparing titles by the collation rules of tag.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{col: collate.New(tag, collate.IgnoreCase)}
}

// Sort orders docs in place. ByOrderWeight compares Order, then title, then path;
// ByTitle compares title, then path. Path is unique, so the order is total.
func (s *Sorter) Sort(docs []Document, cmp taxonomy.Comparator) {
	sort.SliceStable(docs, func(i, j int) bool {
		return s.less(docs[i], docs[j], cmp)
	})
}

// SortCategory sorts docs with the comparator registered for c.
func (s *Sorter) SortCategory(docs []Document, c taxonomy.Category) {
	s.Sort(docs, taxonomy.ComparatorFor(c))
}

func (s *Sorter) less(a, b Document, cmp taxonomy.Comparator) bool {
	if cmp == taxonomy.ByOrderWeight && a.Order != b.Order {
		return a.Order < b.Order
	}
	if c := s.col.CompareString(a.Title, b.Title); c != 0 {
		return c < 0
	}
	return a.Path < b.Path
}

// CompareTitles exposes the collator for callers ordering non-document values.
func (s *Sorter) CompareTitles(a, b string) int {
	return s.col.CompareString(a, b)
}
