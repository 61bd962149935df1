package taxonomy

// Category classifies a document in the target tree.
type Category string

const (
	CategoryMain     Category = "main"
	CategoryAPI      Category = "api"
	CategoryExamples Category = "examples"
	CategoryModules  Category = "modules"
	CategoryOthers   Category = "others"
)

var categoryOrder = []Category{
	CategoryMain,
	CategoryAPI,
	CategoryExamples,
	CategoryModules,
	CategoryOthers,
}

// Categories returns every category in its canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Rank returns the position of c in the canonical order; unknown categories rank last.
func (c Category) Rank() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return len(categoryOrder)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return c.Rank() < len(categoryOrder) }

func (c Category) String() string { return string(c) }

// Comparator selects how documents inside a category are ordered.
type Comparator string

const (
	// ByOrderWeight sorts by the path-derived order weight, then title.
	ByOrderWeight Comparator = "order"
	// ByTitle sorts by locale-aware title comparison, then path.
	ByTitle Comparator = "title"
)

// ComparatorFor returns the ordering used for a category. The main category follows the
// fixed priority table; everything else is alphabetical by title.
func ComparatorFor(c Category) Comparator {
	if c == CategoryMain {
		return ByOrderWeight
	}
	return ByTitle
}
