package sidebar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docweave/internal/indexer"
	"git.home.luguber.info/inful/docweave/internal/modmeta"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newSynth(layout Layout) *Synthesizer {
	return New(taxonomy.Default(), layout, func() time.Time { return fixedNow })
}

func bareLayout() Layout {
	l := DefaultLayout()
	l.Static = nil
	l.External = Section{}
	return l
}

func doc(p, title string, cat taxonomy.Category, order int) indexer.Document {
	return indexer.Document{Path: p, Title: title, Category: cat, Order: order}
}

func indexOf(docs ...indexer.Document) *indexer.Index {
	return &indexer.Index{Generated: fixedNow, Documents: docs}
}

func indexLine(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}

func TestRenderHeaderAndHome(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(), nil)
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "<!-- _sidebar.md -->", lines[0])
	assert.Equal(t, "<!-- generated file, do not edit manually -->", lines[1])
	assert.Equal(t, "<!-- generated at: 2026-03-04T05:06:07Z -->", lines[2])
	assert.Equal(t, "* [🏠 **Home**](/)", lines[4])
	assert.Len(t, lines, 5, "empty index yields only header and home")
}

func TestRenderOmitsEmptyCategories(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(
		doc("README.md", "Overview", taxonomy.CategoryMain, 0),
	), nil)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "* **Getting Started**\n  * [Overview](README.md)")
	assert.NotContains(t, joined, "API Reference")
	assert.NotContains(t, joined, "Core Modules")
	assert.NotContains(t, joined, "Examples")
}

func TestRenderMainByOrderAndAPIByTitle(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(
		doc("CONTRIBUTING.md", "Contributing", taxonomy.CategoryMain, 40),
		doc("README.md", "Zeta Project", taxonomy.CategoryMain, 0),
		doc("modules/api_y.md", "y", taxonomy.CategoryAPI, 1100),
		doc("modules/api_x.md", "x", taxonomy.CategoryAPI, 1100),
	), nil)

	readme := indexLine(lines, "  * [Zeta Project](README.md)")
	contrib := indexLine(lines, "  * [Contributing](CONTRIBUTING.md)")
	require.NotEqual(t, -1, readme)
	assert.Less(t, readme, contrib, "main follows order weight, not title")

	x := indexLine(lines, "  * [x](modules/api_x.md)")
	y := indexLine(lines, "  * [y](modules/api_y.md)")
	require.NotEqual(t, -1, x)
	assert.Equal(t, x+1, y)
	assert.Less(t, contrib, indexLine(lines, "* **API Reference**"))
}

func TestRenderGuidesBlock(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(
		doc("README.md", "Home", taxonomy.CategoryMain, 0),
		doc("examples/getting-started.md", "First Steps", taxonomy.CategoryExamples, 2100),
	), nil)
	g := indexLine(lines, "* **Guides**")
	require.NotEqual(t, -1, g)
	assert.Equal(t, "  * [First Steps](examples/getting-started.md)", lines[g+1])
	assert.Less(t, indexLine(lines, "* **Getting Started**"), g)
	assert.Less(t, g, indexLine(lines, "* **Examples**"))
}

func TestRenderModulesPlainWithoutInventory(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(
		doc("modules/scheduler.md", "Scheduler", taxonomy.CategoryModules, 3100),
	), &modmeta.Inventory{})
	assert.Contains(t, lines, "  * [Scheduler](modules/scheduler.md)")
	for _, l := range lines {
		assert.NotContains(t, l, "module-badge")
	}
}

func TestRenderModulesStatusMode(t *testing.T) {
	inv := &modmeta.Inventory{Modules: map[string]modmeta.Record{
		"hal":       {Name: "Hardware Abstraction", Status: taxonomy.StatusExperimental, Icon: "🔌"},
		"scheduler": {Name: "Task Scheduler", Status: taxonomy.StatusStable, Icon: "⚙️"},
		"utils":     {Name: "Utilities", Status: taxonomy.StatusBeta, Icon: "🔧"},
	}}
	sched := doc("modules/scheduler.md", "Scheduler", taxonomy.CategoryModules, 3100)
	sched.Sections = []string{"Overview", "Task Priorities", "API", "Limits"}

	lines := newSynth(bareLayout()).Render(indexOf(
		doc("modules/hal.md", "HAL", taxonomy.CategoryModules, 3100),
		sched,
		doc("modules/utils.md", "Utils", taxonomy.CategoryModules, 3100),
		doc("modules/unknown.md", "Unknown Thing", taxonomy.CategoryModules, 3100),
	), inv)

	stable := indexLine(lines, `  * ⚙️ [Task Scheduler](modules/scheduler.md) <span class="module-badge badge-stable">Stable</span>`)
	beta := indexLine(lines, `  * 🔧 [Utilities](modules/utils.md) <span class="module-badge badge-beta">Beta</span>`)
	hal := indexLine(lines, `  * 🔌 [Hardware Abstraction](modules/hal.md) <span class="module-badge badge-experimental">Experimental</span>`)
	unknown := indexLine(lines, `  * 📦 [Unknown Thing](modules/unknown.md) <span class="module-badge badge-experimental">Experimental</span>`)
	require.NotEqual(t, -1, stable)
	require.NotEqual(t, -1, beta)
	require.NotEqual(t, -1, hal)
	require.NotEqual(t, -1, unknown)

	assert.Equal(t, "    * [Overview](modules/scheduler.md#overview)", lines[stable+1])
	assert.Equal(t, "    * [Task Priorities](modules/scheduler.md#task-priorities)", lines[stable+2])
	assert.Equal(t, "    * [API](modules/scheduler.md#api)", lines[stable+3])
	assert.Equal(t, beta, stable+4, "at most three section links")

	assert.Less(t, beta, hal)
	assert.Less(t, hal, unknown, "same status ordered by title")
}

func TestRenderStaticAndExternalSections(t *testing.T) {
	l := bareLayout()
	l.Static = []Section{{Title: "Reference", Links: []Link{{"FAQ", "faq.md"}}}, {Title: "Empty"}}
	l.External = Section{Title: "Community", Links: []Link{{"Repository", "https://example.org/repo"}}}
	lines := newSynth(l).Render(indexOf(doc("README.md", "Home", taxonomy.CategoryMain, 0)), nil)

	ref := indexLine(lines, "* **Reference**")
	com := indexLine(lines, "* **Community**")
	require.NotEqual(t, -1, ref)
	assert.Less(t, indexLine(lines, "* **Getting Started**"), ref)
	assert.Less(t, ref, com)
	assert.Equal(t, -1, indexLine(lines, "* **Empty**"))
	assert.Equal(t, "  * [Repository](https://example.org/repo)", lines[len(lines)-1])
}

func TestRenderDefaultLayoutEndsWithProjectLinks(t *testing.T) {
	lines := newSynth(DefaultLayout()).Render(indexOf(doc("README.md", "Home", taxonomy.CategoryMain, 0)), nil)

	related := indexLine(lines, "* **Related Links**")
	require.NotEqual(t, -1, related)
	assert.Less(t, indexLine(lines, "* **Reference**"), related)
	assert.Contains(t, lines, "  * [🐙 Repository]("+DefaultProjectURL+")")
	assert.Contains(t, lines, "  * [🐞 Issues]("+DefaultProjectURL+"/issues)")
	assert.Contains(t, lines, "  * [🤝 Pull Requests]("+DefaultProjectURL+"/pulls)")
}

func TestProjectLinksTrimsTrailingSlash(t *testing.T) {
	sec := ProjectLinks("https://example.org/fw/")
	require.Len(t, sec.Links, 3)
	assert.Equal(t, "https://example.org/fw", sec.Links[0].Path)
	assert.Equal(t, "https://example.org/fw/pulls", sec.Links[2].Path)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "task-priorities", Slug("Task  Priorities"))
	assert.Equal(t, "api", Slug("API"))
	assert.Equal(t, "%C3%BCbersicht", Slug("Übersicht"))
	assert.Equal(t, "init-%26-config%3A-a%2Bb%3D%24x", Slug("Init & Config: a+b=$x"))
	assert.Equal(t, "what's-new-(v2)!", Slug("What's New (v2)!"))
	assert.Equal(t, "path%2Fto%3Fq%23frag", Slug("path/to?q#frag"))
}

func TestEscapedTitles(t *testing.T) {
	lines := newSynth(bareLayout()).Render(indexOf(doc("README.md", "[WIP] Home", taxonomy.CategoryMain, 0)), nil)
	assert.Contains(t, lines, `  * [\[WIP\] Home](README.md)`)
}

func TestWrite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "docs", FileName)
	require.NoError(t, Write(dest, []string{"a", "b"}))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))

	require.NoError(t, Write(dest, []string{"c"}))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(data))
}
