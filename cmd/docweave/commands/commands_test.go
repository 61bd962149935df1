package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docweave/internal/config"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/linkcheck"
	"git.home.luguber.info/inful/docweave/internal/testutil/testutils"
)

var projectTree = map[string]string{
	"README.md":                "# Firmware\n\nStart with [the scheduler](scheduler/README.md).\n",
	"scheduler/README.md":      "# Scheduler\n\n## Overview\n\nRuns tasks.\n",
	"scheduler/task.c":         "int task;\n",
	"gpio/README.md":           "Pins and ports.\n",
	"gpio/gpio.c":              "int gpio;\n",
	"examples/blink/README.md": "# Blink\n",
}

const minimalConfig = `version: "1"
source:
  root: .
target:
  root: docs
outputs:
  metrics_textfile: metrics/docweave.prom
`

// execute parses args like the binary does and runs the selected command.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	var usage bytes.Buffer
	parser, err := NewParser(cli, kong.Writers(&usage, &usage), kong.Exit(func(code int) {
		t.Fatalf("unexpected exit %d: %s", code, usage.String())
	}))
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	kctx.BindTo(context.Background(), (*context.Context)(nil))

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out})
	return out.String(), err
}

func project(t *testing.T, cfg string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	testutils.WriteTree(t, dir, projectTree)
	cfgPath = filepath.Join(dir, "docweave.yaml")
	if cfg != "" {
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	}
	return dir, cfgPath
}

func TestInitThenBuild(t *testing.T) {
	dir, cfgPath := project(t, "")

	out, err := execute(t, "--config", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")

	out, err = execute(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Starting docweave build")
	assert.Contains(t, out, ": success in ")

	testutils.NewFileAssertions(t, filepath.Join(dir, "docs")).
		AssertFileExists("README.md").
		AssertFileExists("modules/scheduler.md").
		AssertFileExists("_sidebar.md").
		AssertFileExists("modules-metadata.json").
		AssertFileExists("docs-index.json").
		AssertFileExists("sitemap.md").
		AssertFileContains("sitemap.xml", "https://docs.example.org")
}

func TestInit_RefusesOverwrite(t *testing.T) {
	_, cfgPath := project(t, minimalConfig)

	out, err := execute(t, "-c", cfgPath, "init")
	require.Error(t, err)
	assert.Contains(t, out, "Initialization failed")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = execute(t, "-c", cfgPath, "init", "--force")
	require.NoError(t, err)
}

func TestInit_OutputDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", "-o", dir)
	require.NoError(t, err)
	testutils.NewFileAssertions(t, dir).AssertFileHasPrefix("docweave.yaml", "# docweave configuration")
}

func TestBuild_WritesMetricsTextfile(t *testing.T) {
	dir, cfgPath := project(t, minimalConfig)

	_, err := execute(t, "-c", cfgPath, "build")
	require.NoError(t, err)

	testutils.NewFileAssertions(t, dir).
		AssertFileContains("metrics/docweave.prom", "docweave_run_outcomes_total").
		AssertFileNotExists("docs/sitemap.xml")
}

func TestBuild_SelectedStages(t *testing.T) {
	dir, cfgPath := project(t, minimalConfig)

	out, err := execute(t, "-c", cfgPath, "build", "--stage", "collect")
	require.NoError(t, err)
	assert.Contains(t, out, "0 documents")

	testutils.NewFileAssertions(t, filepath.Join(dir, "docs")).
		AssertFileExists("modules/scheduler.md").
		AssertFileNotExists("_sidebar.md")
}

func TestBuild_UnknownStage(t *testing.T) {
	_, cfgPath := project(t, minimalConfig)

	_, err := execute(t, "-c", cfgPath, "build", "--stage", "render")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Equal(t, ferrors.ExitValidation, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCollectThenSidebar(t *testing.T) {
	dir, cfgPath := project(t, minimalConfig)

	_, err := execute(t, "-c", cfgPath, "collect", "--skip-auxiliary")
	require.NoError(t, err)
	_, err = execute(t, "-c", cfgPath, "metadata")
	require.NoError(t, err)
	_, err = execute(t, "-c", cfgPath, "sidebar")
	require.NoError(t, err)

	testutils.NewFileAssertions(t, filepath.Join(dir, "docs")).
		AssertFileExists("modules-metadata.json").
		AssertFileContains("_sidebar.md", "modules/scheduler.md").
		AssertFileNotExists("docs-index.json")
}

func TestCheckLinks(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{
		"docweave.yaml":  minimalConfig,
		"docs/README.md": "# Home\n\nSee [guide](guide.md) and [gone](missing.md).\n",
		"docs/guide.md":  "# Guide\n",
	})
	cfgPath := filepath.Join(dir, "docweave.yaml")

	out, err := execute(t, "-c", cfgPath, "check-links")
	require.ErrorIs(t, err, ErrBrokenLinks)
	assert.Equal(t, ferrors.ExitGeneral, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out, "missing.md")
	testutils.NewFileAssertions(t, dir).
		AssertFileContains(filepath.Join("docs", linkcheck.ReportFile), "missing.md").
		AssertFileContains("metrics/docweave.prom", "docweave_broken_links 1")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "missing.md"), []byte("# Back\n"), 0o600))
	_, err = execute(t, "-c", cfgPath, "check-links")
	require.NoError(t, err)
	testutils.NewFileAssertions(t, dir).AssertFileNotExists(filepath.Join("docs", linkcheck.ReportFile))
}

func TestCheckLinks_MissingTree(t *testing.T) {
	_, cfgPath := project(t, minimalConfig)

	_, err := execute(t, "-c", cfgPath, "check-links", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestLoadConfig_DefaultFallback(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(&Global{}, &CLI{Config: "docweave.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "docs", cfg.Target.Root)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	_, err := LoadConfig(&Global{}, &CLI{Config: filepath.Join(t.TempDir(), "custom.yaml")})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadConfig_AppliesLogging(t *testing.T) {
	_, cfgPath := project(t, minimalConfig+"logging:\n  level: warn\n  format: json\n")

	g := &Global{}
	_, err := LoadConfig(g, &CLI{Config: cfgPath})
	require.NoError(t, err)
	require.NotNil(t, g.Logger)
	assert.False(t, g.Logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, g.Logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestWatchRoots(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"src/a.c": "", "docs-src/README.md": ""})
	src := filepath.Join(dir, "src")
	docsSrc := filepath.Join(dir, "docs-src")

	assert.Equal(t, []string{dir}, watchRoots(dir, src))
	assert.Equal(t, []string{dir}, watchRoots(src, dir))
	assert.Equal(t, []string{docsSrc, src}, watchRoots(docsSrc, src))
	assert.Equal(t, []string{docsSrc}, watchRoots(docsSrc, filepath.Join(dir, "absent")))
}

func TestWatchOptions(t *testing.T) {
	_, cfgPath := project(t, minimalConfig+"watch:\n  interval: 1h\n")
	cfg, err := LoadConfig(&Global{}, &CLI{Config: cfgPath})
	require.NoError(t, err)

	opts := watchOptions(cfg)
	assert.Equal(t, []string{cfg.SourceRoot("")}, opts.Roots)
	assert.Equal(t, []string{cfg.TargetRoot()}, opts.IgnoreDirs)
	assert.Equal(t, time.Hour, opts.Interval)

	cfg.Source.Repository = &config.RepositoryConfig{URL: "https://example.org/firmware.git"}
	assert.Empty(t, watchOptions(cfg).Roots, "a remote source is only scheduled")
}
