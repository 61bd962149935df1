package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docweave/internal/config"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/version"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing progress messages. Nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out(), format, args...)
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docweave.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Run the full documentation pipeline"`
	Collect    CollectCmd    `cmd:"" help:"Collect README fragments into the target tree"`
	Sidebar    SidebarCmd    `cmd:"" help:"Regenerate the sidebar from the target tree"`
	Metadata   MetadataCmd   `cmd:"" help:"Regenerate the module metadata file"`
	CheckLinks CheckLinksCmd `cmd:"" name:"check-links" help:"Verify relative links in the target tree"`
	Watch      WatchCmd      `cmd:"" help:"Rebuild on source changes and on a schedule"`
	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging until a configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	configureLogging(os.Stderr, config.LogFormatText, config.LogLevelInfo, c.Verbose)
	return nil
}

// NewParser builds the kong parser for cli. Extra options follow the defaults, so tests
// can redirect output and exit handling.
func NewParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("docweave"),
		kong.Description("Aggregate per-module README fragments into a navigable documentation tree."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	}
	return kong.New(cli, append(base, opts...)...)
}

func configureLogging(w io.Writer, format config.LogFormat, level config.LogLevel, verbose bool) *slog.Logger {
	lvl := level.SlogLevel()
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads the configuration named by the global flag and applies its logging
// section. A missing file at the default location falls back to the built-in defaults; a
// missing file named explicitly is an error.
func LoadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if root.Config != config.DefaultFile || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		slog.Warn("No configuration file found; using defaults", logfields.Path(root.Config))
		cfg = config.Default()
	}
	logger := configureLogging(os.Stderr, cfg.Logging.Format, cfg.Logging.Level, root.Verbose)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}
