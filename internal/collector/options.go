package collector

import (
	"git.home.luguber.info/inful/docweave/internal/foundation/normalization"
	"git.home.luguber.info/inful/docweave/internal/linkrewrite"
	"git.home.luguber.info/inful/docweave/internal/pathmap"
)

// TitleMode controls heading injection for non-root documents.
type TitleMode string

const (
	TitleAlways  TitleMode = "always"
	TitleMissing TitleMode = "missing"
	TitleNever   TitleMode = "never"
)

var titleModeNormalizer = normalization.NewNormalizer(map[string]TitleMode{
	"always":  TitleAlways,
	"missing": TitleMissing,
	"never":   TitleNever,
}, TitleAlways)

// ParseTitleMode normalizes a configured title mode; empty input yields TitleAlways.
func ParseTitleMode(raw string) (TitleMode, error) {
	return titleModeNormalizer.NormalizeWithError(raw)
}

// DefaultPatterns are the base-name globs that identify documentation files.
func DefaultPatterns() []string {
	return []string{"README.md", "README_*.md", "README.*.md"}
}

// DefaultExclude are directory globs never descended into.
func DefaultExclude() []string {
	return []string{".git", "node_modules", "build", "dist", "_build", "vendor"}
}

// DefaultAuxiliaryDocs are top-level files copied verbatim next to the collected docs.
func DefaultAuxiliaryDocs() []string {
	return []string{"LICENSE", "LICENSE.md", "CHANGELOG.md", "CONTRIBUTING.md"}
}

// Options configures a Collector.
type Options struct {
	SourceRoot string
	TargetRoot string

	// Patterns are base-name globs; empty means DefaultPatterns.
	Patterns []string
	// Exclude are globs matched against a directory's base name and its source-relative path.
	// The target root is always excluded when it lies inside the source root.
	Exclude []string

	Mapper    pathmap.Mapper
	Rewriter  linkrewrite.Rewriter
	TitleMode TitleMode

	// Workers bounds concurrent materialization. Values below 1 mean sequential.
	Workers int
}
