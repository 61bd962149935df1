package markdown

// Options is passed to the goldmark-backed extractors. It carries no settings yet.
type Options struct{}

// LinkKind distinguishes the Markdown constructs that reference another document.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link destination found by ExtractLinks.
type Link struct {
	Kind        LinkKind
	Destination string
}

// Heading is an ATX or setext heading found by ExtractHeadings, with inline markup removed.
type Heading struct {
	Level int
	Text  string
}
