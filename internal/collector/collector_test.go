package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/pathmap"
	"git.home.luguber.info/inful/docweave/internal/testutil/testutils"
)

func newCollector(t *testing.T, src, dst string, mutate ...func(*Options)) *Collector {
	t.Helper()
	opts := Options{SourceRoot: src, TargetRoot: dst}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestCollect_PatternsAndExclusions(t *testing.T) {
	src := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{
		"README.md":                  "# Root\n",
		"README_zh.md":               "# 中文\n",
		"README.en.md":               "# English\n",
		"moduleA/README.md":          "A\n",
		"moduleA/notes.md":           "not a readme\n",
		"lib/net/README.md":          "net\n",
		"node_modules/pkg/README.md": "skip\n",
		"build/README.md":            "skip\n",
		".git/README.md":             "skip\n",
		"docs/README.md":             "generated, skip\n",
		"docs/modules/old/README.md": "generated, skip\n",
	})

	c := newCollector(t, src, filepath.Join(src, "docs"))
	docs, err := c.Collect(context.Background())
	require.NoError(t, err)

	var rels []string
	for _, d := range docs {
		rels = append(rels, d.RelativePath)
	}
	require.Equal(t, []string{
		"README.en.md",
		"README.md",
		"README_zh.md",
		"lib/net/README.md",
		"moduleA/README.md",
	}, rels)

	require.Equal(t, "lib/net", docs[3].Directory)
	require.Equal(t, "README.md", docs[3].Filename)
	require.Equal(t, "", docs[1].Directory)
}

func TestCollect_ZeroMatches(t *testing.T) {
	src := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"main.c": "int main(void){}\n"})
	docs, err := newCollector(t, src, t.TempDir()).Collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestCollect_MissingSourceRootIsFatal(t *testing.T) {
	c := newCollector(t, filepath.Join(t.TempDir(), "nope"), t.TempDir())
	_, err := c.Collect(context.Background())
	require.ErrorIs(t, err, ErrSourceRootNotFound)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.True(t, ce.IsFatal())
	require.Equal(t, ferrors.CategoryFileSystem, ce.Category())
}

func TestCollect_Canceled(t *testing.T) {
	src := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"README.md": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newCollector(t, src, t.TempDir()).Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Options{SourceRoot: "a", TargetRoot: "b", Patterns: []string{"README[.md"}})
	require.ErrorIs(t, err, ErrInvalidPattern)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestRender(t *testing.T) {
	c := newCollector(t, "src", "dst")
	doc := SourceDocument{RelativePath: "lib/net/README.md", Directory: "lib/net", Filename: "README.md"}
	out := string(c.Render(doc, []byte("See [api](api.md).\n")))
	require.Equal(t, "<!-- source: lib/net/README.md -->\n# net\n\nSee [api](../lib/net/api.md).\n", out)

	root := SourceDocument{RelativePath: "README.md", Filename: "README.md"}
	out = string(c.Render(root, []byte("# Project\n")))
	require.Equal(t, "<!-- source: README.md -->\n# Project\n", out)
}

func TestRender_TitleModes(t *testing.T) {
	doc := SourceDocument{RelativePath: "m/README.md", Directory: "m", Filename: "README.md"}
	withHeading := []byte("# Existing\n\nbody\n")
	without := []byte("body\n")

	cases := []struct {
		mode    TitleMode
		content []byte
		inject  bool
	}{
		{TitleAlways, withHeading, true},
		{TitleAlways, without, true},
		{TitleMissing, withHeading, false},
		{TitleMissing, without, true},
		{TitleNever, without, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%v", tc.mode, tc.inject), func(t *testing.T) {
			c := newCollector(t, "src", "dst", func(o *Options) { o.TitleMode = tc.mode })
			out := string(c.Render(doc, tc.content))
			require.Equal(t, tc.inject, strings.Contains(out, "# m\n"))
		})
	}
}

func TestRender_FrontmatterStaysFirst(t *testing.T) {
	c := newCollector(t, "src", "dst")
	doc := SourceDocument{RelativePath: "m/README.md", Directory: "m", Filename: "README.md"}
	out := string(c.Render(doc, []byte("---\ntitle: M\n---\nbody\n")))
	require.Equal(t, "---\ntitle: M\n---\n<!-- source: m/README.md -->\n# m\n\nbody\n", out)
}

func TestEndToEnd_RootAndModule(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(src, "docs")
	testutils.WriteTree(t, src, map[string]string{
		"README.md":         "# Project\n\nSee [moduleA](moduleA/README.md).\n",
		"moduleA/README.md": "Uses [helpers](helpers.md).\n",
	})

	c := newCollector(t, src, dst)
	docs, err := c.Collect(context.Background())
	require.NoError(t, err)
	sum, err := c.MaterializeAll(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Processed)
	require.Zero(t, sum.Failed)

	testutils.NewFileAssertions(t, dst).
		AssertFileExists("README.md").
		AssertFileHasPrefix("README.md", "<!-- source: README.md -->\n# Project").
		AssertFileContains("README.md", "[moduleA](../moduleA/README.md)").
		AssertFileHasPrefix("modules/moduleA.md", "<!-- source: moduleA/README.md -->\n# moduleA\n").
		AssertFileContains("modules/moduleA.md", "[helpers](../moduleA/helpers.md)")
}

func TestMaterializeAll_OneFailureDoesNotAbort(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("mod%02d/README.md", i)] = fmt.Sprintf("module %d\n", i)
	}
	testutils.WriteTree(t, src, files)

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			c := newCollector(t, src, dst, func(o *Options) { o.Workers = workers })
			docs, err := c.Collect(context.Background())
			require.NoError(t, err)
			require.Len(t, docs, 10)

			broken := docs[3]
			broken.OriginalPath = filepath.Join(src, "mod03", "missing.md")
			docs[3] = broken

			sum, err := c.MaterializeAll(context.Background(), docs)
			require.NoError(t, err)
			require.Equal(t, 9, sum.Processed)
			require.Equal(t, 1, sum.Failed)
			require.Len(t, sum.Failures, 1)
			require.Equal(t, "mod03/README.md", sum.Failures[0].Path)
			require.ErrorIs(t, sum.Failures[0].Err, ErrReadFailed)
		})
	}
}

func TestMaterializeAll_CollisionAbortsBeforeWriting(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	testutils.WriteTree(t, src, map[string]string{
		"a_b/README.md": "x",
		"a/b/README.md": "y",
	})
	c := newCollector(t, src, dst)
	docs, err := c.Collect(context.Background())
	require.NoError(t, err)

	_, err = c.MaterializeAll(context.Background(), docs)
	require.True(t, errors.Is(err, pathmap.ErrPathCollision))
	_, statErr := os.Stat(dst)
	require.True(t, os.IsNotExist(statErr), "nothing should be written on collision")
}

func TestMaterializeAll_TargetRootUncreatable(t *testing.T) {
	src := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{"README.md": "x", "blocker": "file"})
	c := newCollector(t, src, filepath.Join(src, "blocker", "docs"))
	docs, err := c.Collect(context.Background())
	require.NoError(t, err)

	_, err = c.MaterializeAll(context.Background(), docs)
	require.ErrorIs(t, err, ErrTargetRootCreate)
	require.True(t, ferrors.GetSeverity(err) == ferrors.SeverityFatal)
}

func TestCopyAuxiliaryDocs(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{
		"LICENSE":      "MIT\n",
		"CHANGELOG.md": "# Changes\n",
	})
	sum := newCollector(t, src, dst).CopyAuxiliaryDocs(DefaultAuxiliaryDocs())
	require.Equal(t, 2, sum.Processed)
	require.Equal(t, 2, sum.Skipped)
	require.Zero(t, sum.Failed)

	testutils.NewFileAssertions(t, dst).
		AssertFileContains("LICENSE.md", "MIT").
		AssertFileContains("CHANGELOG.md", "# Changes").
		AssertFileNotExists("CONTRIBUTING.md").
		AssertFileNotExists("LICENSE")
}

func TestCopyAuxiliaryDocs_MarkdownLicenseWins(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{
		"LICENSE":    "plain\n",
		"LICENSE.md": "# License\n",
	})
	sum := newCollector(t, src, dst).CopyAuxiliaryDocs(DefaultAuxiliaryDocs())
	require.Equal(t, 1, sum.Processed)
	require.Equal(t, 3, sum.Skipped)
	require.Zero(t, sum.Failed)

	data, err := os.ReadFile(filepath.Join(dst, "LICENSE.md"))
	require.NoError(t, err)
	require.Equal(t, "# License\n", string(data))
}

func TestParseTitleMode(t *testing.T) {
	m, err := ParseTitleMode("MISSING")
	require.NoError(t, err)
	require.Equal(t, TitleMissing, m)
	_, err = ParseTitleMode("sometimes")
	require.Error(t, err)
}
