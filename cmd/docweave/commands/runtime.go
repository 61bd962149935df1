package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docweave/internal/config"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/notify"
	"git.home.luguber.info/inful/docweave/internal/pipeline"
)

// Runtime bundles a configured pipeline runner with its metrics and notification sinks.
type Runtime struct {
	Config    *config.Config
	Runner    *pipeline.Runner
	Metrics   *metrics.PrometheusRecorder
	publisher notify.Publisher
}

// NewRuntime wires the runner for cfg. A NATS server that cannot be reached disables
// notifications for this process instead of failing the command.
func NewRuntime(cfg *config.Config) *Runtime {
	rt := &Runtime{
		Config:    cfg,
		Metrics:   metrics.NewPrometheusRecorder(nil),
		publisher: notify.Noop{},
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Run notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			rt.publisher = pub
		}
	}
	rt.Runner = pipeline.NewRunner(cfg).WithRecorder(rt.Metrics).WithPublisher(rt.publisher)
	return rt
}

// Run executes the requested stages and refreshes the metrics textfile.
func (rt *Runtime) Run(ctx context.Context, stages ...pipeline.StageName) (*pipeline.Report, error) {
	report, err := rt.Runner.Run(ctx, stages...)
	rt.WriteMetrics()
	return report, err
}

// WriteMetrics exports the registry when outputs.metrics_textfile is set. Failures are
// logged only.
func (rt *Runtime) WriteMetrics() {
	if rt.Config.Outputs.MetricsTextfile == "" {
		return
	}
	dest := rt.Config.Resolve(rt.Config.Outputs.MetricsTextfile)
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		slog.Warn("Failed to create metrics textfile directory", logfields.Path(dest), logfields.Error(err))
		return
	}
	if err := rt.Metrics.WriteTextfile(dest); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(dest), logfields.Error(err))
	}
}

// Close releases the notification connection.
func (rt *Runtime) Close() {
	if err := rt.publisher.Close(); err != nil {
		slog.Warn("Failed to close notification publisher", logfields.Error(err))
	}
}

func runPipeline(ctx context.Context, g *Global, root *CLI, stages ...pipeline.StageName) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	rt := NewRuntime(cfg)
	defer rt.Close()

	report, err := rt.Run(ctx, stages...)
	if report != nil {
		printReport(g, report)
	}
	return err
}

func printReport(g *Global, report *pipeline.Report) {
	g.printf("Run %s: %s in %s (%d documents, %d modules, %d warnings)\n",
		report.RunID, report.Outcome, report.Duration().Round(time.Millisecond),
		report.Documents, report.Modules, len(report.Warnings))
	for _, w := range report.Warnings {
		g.printf("  warning: %v\n", w)
	}
}
