package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docweave/internal/config"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	NoInitial     bool   `name:"no-initial" help:"Skip the run performed at startup"`
	MetricsListen string `name:"metrics-listen" help:"Serve Prometheus metrics on this address (overrides watch.metrics_listen)"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	rt := NewRuntime(cfg)
	defer rt.Close()

	opts := watchOptions(cfg)
	opts.SkipInitialRun = w.NoInitial
	if _, remote := cfg.GitSource(); remote && opts.Interval == 0 && opts.Schedule == "" {
		slog.Warn("Remote source without watch.schedule or watch.interval only runs on startup")
	}

	svc, err := watch.New(func(ctx context.Context) error {
		report, err := rt.Run(ctx)
		if report != nil {
			printReport(g, report)
		}
		return err
	}, opts)
	if err != nil {
		return err
	}

	listen := cfg.Watch.MetricsListen
	if w.MetricsListen != "" {
		listen = w.MetricsListen
	}
	if listen != "" {
		srv, err := serveMetrics(listen, rt)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown failed", logfields.Error(err))
			}
		}()
	}

	g.printf("Watching for changes (Ctrl+C to stop)\n")
	return svc.Run(ctx)
}

// watchOptions derives the watch service settings. A remote source has no local tree to
// watch, so only the schedule triggers runs.
func watchOptions(cfg *config.Config) watch.Options {
	opts := watch.Options{
		IgnoreDirs: []string{cfg.TargetRoot()},
		Exclude:    cfg.Source.Exclude,
		Debounce:   cfg.Debounce(),
		Interval:   cfg.Interval(),
		Schedule:   cfg.Watch.Schedule,
	}
	if _, remote := cfg.GitSource(); remote {
		return opts
	}
	opts.Roots = watchRoots(cfg.SourceRoot(""), cfg.ImplementationRoot(""))
	return opts
}

// watchRoots drops roots nested inside another root and implementation roots that do not
// exist.
func watchRoots(source, impl string) []string {
	roots := []string{filepath.Clean(source)}
	impl = filepath.Clean(impl)
	if _, err := os.Stat(impl); err != nil {
		return roots
	}
	switch {
	case within(roots[0], impl):
	case within(impl, roots[0]):
		roots[0] = impl
	default:
		roots = append(roots, impl)
	}
	return roots
}

// within reports whether p equals dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func serveMetrics(addr string, rt *Runtime) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to listen for metrics").
			WithContext("address", addr).Fatal().Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	srv := &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("address", ln.Addr().String()))
	return srv, nil
}
