package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docweave/internal/linkcheck"
	"git.home.luguber.info/inful/docweave/internal/logfields"
)

// ErrBrokenLinks is returned when a link check finds unresolved links. It is unclassified,
// so the process exits with status 1.
var ErrBrokenLinks = errors.New("broken links found")

// CheckLinksCmd implements the 'check-links' command.
type CheckLinksCmd struct {
	Dir      string `arg:"" optional:"" help:"Tree to check; defaults to the configured target root"`
	NoReport bool   `name:"no-report" help:"Do not write link-check-report.md into the tree"`
}

func (c *CheckLinksCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	dir := cfg.TargetRoot()
	if c.Dir != "" {
		dir = c.Dir
	}

	checker, err := linkcheck.New(dir, linkcheck.Options{Base: cfg.Target.LinkBase, ExcludeDirs: cfg.Source.Exclude})
	if err != nil {
		return err
	}
	report, err := checker.Check(ctx)
	if err != nil {
		return err
	}

	rt := NewRuntime(cfg)
	defer rt.Close()
	rt.Metrics.SetBrokenLinks(len(report.Issues))
	rt.WriteMetrics()

	g.printf("Checked %d links in %d files: %d broken\n", report.Links, report.Files, len(report.Issues))
	for _, is := range report.Issues {
		g.printf("  %s:%d %s (%s)\n", is.Source, is.Line, is.Link, is.Reason)
	}
	for _, e := range report.Errors {
		g.printf("  error: %s\n", e)
	}

	if !c.NoReport {
		if err := writeLinkReport(report, dir); err != nil {
			return err
		}
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d issues, %d unreadable files", ErrBrokenLinks, len(report.Issues), len(report.Errors))
	}
	return nil
}

// writeLinkReport stores the report, or removes a stale one when the tree is clean.
func writeLinkReport(report *linkcheck.Report, dir string) error {
	if report.OK() {
		stale := filepath.Join(dir, linkcheck.ReportFile)
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to remove stale link report", logfields.Path(stale), logfields.Error(err))
		}
		return nil
	}
	dest, err := report.WriteReport(dir)
	if err != nil {
		return err
	}
	slog.Info("Link check report written", logfields.Path(dest))
	return nil
}
