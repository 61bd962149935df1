package sidebar

import (
	"strings"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// Link is a hand-authored sidebar entry.
type Link struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
}

// Section is a titled block of hand-authored links.
type Section struct {
	Title string `yaml:"title"`
	Links []Link `yaml:"links"`
}

// GuidesHeading keys the guides block in Layout.Headings.
const GuidesHeading = "guides"

// Layout holds the static parts of the sidebar and presentation knobs.
type Layout struct {
	Locale    language.Tag
	HomeTitle string
	HomePath  string
	// Headings maps a category (or GuidesHeading) to its block title.
	Headings map[string]string
	// Static sections follow the generated categories.
	Static []Section
	// External is the trailing block of off-site links.
	External Section
	// MaxStableSections bounds the H2 links shown under stable modules.
	MaxStableSections int
}

// DefaultProjectURL is the hosted repository the default external block links to.
const DefaultProjectURL = "https://github.com/zuoliangyu/EmbedKit"

// ProjectLinks returns the external block for a hosted repository: the repository itself,
// its issue tracker and its pull requests.
func ProjectLinks(projectURL string) Section {
	base := strings.TrimRight(projectURL, "/")
	return Section{Title: "Related Links", Links: []Link{
		{"🐙 Repository", base},
		{"🐞 Issues", base + "/issues"},
		{"🤝 Pull Requests", base + "/pulls"},
	}}
}

// DefaultLayout returns the built-in layout.
func DefaultLayout() Layout {
	return Layout{
		Locale:    language.English,
		HomeTitle: "🏠 **Home**",
		HomePath:  "/",
		Headings: map[string]string{
			string(taxonomy.CategoryMain):     "Getting Started",
			GuidesHeading:                     "Guides",
			string(taxonomy.CategoryAPI):      "API Reference",
			string(taxonomy.CategoryModules):  "Core Modules",
			string(taxonomy.CategoryExamples): "Examples",
			string(taxonomy.CategoryOthers):   "More Documentation",
		},
		Static: []Section{
			{Title: "Architecture", Links: []Link{
				{"🏗️ System Architecture", "design/architecture.md"},
				{"📐 Design Principles", "design/principles.md"},
				{"⚡ Performance", "design/optimization.md"},
				{"🗺️ Memory Layout", "design/memory_layout.md"},
			}},
			{Title: "Best Practices", Links: []Link{
				{"📝 Coding Standards", "best_practices/coding_standards.md"},
				{"🛡️ Memory Safety", "best_practices/memory_safety.md"},
				{"⏱️ Real-Time Guarantees", "best_practices/real_time.md"},
				{"🐛 Debugging", "best_practices/debugging.md"},
			}},
			{Title: "Porting", Links: []Link{
				{"🔄 Overview", "porting/overview.md"},
				{"🔌 Hardware Abstraction Layer", "porting/hal.md"},
				{"📱 Platforms", "porting/platforms.md"},
				{"🔨 Compilers", "porting/compilers.md"},
			}},
			{Title: "Reference", Links: []Link{
				{"❓ FAQ", "faq.md"},
				{"📖 Glossary", "glossary.md"},
				{"📝 Changelog", "CHANGELOG.md"},
				{"🗺️ Roadmap", "roadmap.md"},
				{"📜 License", "LICENSE.md"},
			}},
		},
		External:          ProjectLinks(DefaultProjectURL),
		MaxStableSections: 3,
	}
}

func (l Layout) heading(key string) string {
	if h, ok := l.Headings[key]; ok && h != "" {
		return h
	}
	return key
}
