package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Link
	}{
		{"inline", "See the [scheduler API](api/scheduler.md).", []Link{{LinkKindInline, "api/scheduler.md"}}},
		{"image", "![Task states](img/states.png)", []Link{{LinkKindImage, "img/states.png"}}},
		{"autolink", "<https://example.org/firmware>", []Link{{LinkKindAuto, "https://example.org/firmware"}}},
		{
			"reference usage and definition",
			"Read [the port guide][port].\n\n[port]: ../hal/README.md\n",
			[]Link{{LinkKindInline, "../hal/README.md"}, {LinkKindReferenceDefinition, "../hal/README.md"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := ExtractLinks([]byte(tt.src), Options{})
			require.NoError(t, err)
			require.Equal(t, tt.want, links)
		})
	}
}

func TestExtractLinks_IgnoresCode(t *testing.T) {
	src := []byte("" +
		"Use `[x](inline.md)` literally.\n" +
		"\n" +
		"```md\n" +
		"[x](fenced.md)\n" +
		"```\n" +
		"\n" +
		"    [x](indented.md)\n" +
		"\n" +
		"Then [memory](../memory/README.md).\n")

	links, err := ExtractLinks(src, Options{})
	require.NoError(t, err)
	require.Equal(t, []Link{{LinkKindInline, "../memory/README.md"}}, links)
}

func TestExtractHeadings(t *testing.T) {
	src := []byte("# Scheduler\n\nIntro.\n\n## Quick `start`\n\nText\n\nSetext Two\n----------\n\n```\n# not a heading\n```\n")
	headings, err := ExtractHeadings(src, Options{})
	require.NoError(t, err)
	require.Equal(t, []Heading{
		{Level: 1, Text: "Scheduler"},
		{Level: 2, Text: "Quick start"},
		{Level: 2, Text: "Setext Two"},
	}, headings)
}

func TestPlainText(t *testing.T) {
	src := []byte("# Title\n\nThe **task** scheduler runs [jobs](jobs.md).\n\n```c\nint x;\n```\n\n- one\n- two ![img](a.png)\n")
	require.Equal(t, "The task scheduler runs jobs. one two", PlainText(src, Options{}))
}
