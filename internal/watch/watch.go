package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
)

// RunFunc performs one pipeline run. Errors are logged; they never stop the service.
type RunFunc func(ctx context.Context) error

// Options configures a Service.
type Options struct {
	// Roots are the directory trees watched for changes.
	Roots []string
	// IgnoreDirs are directories (typically the target root) whose events are dropped.
	IgnoreDirs []string
	// Exclude are base-name globs of directories never watched, e.g. node_modules.
	Exclude []string
	// Debounce is the quiet period after the last event before a run starts.
	Debounce time.Duration
	// Interval schedules periodic runs; Schedule does the same with a cron expression.
	Interval time.Duration
	Schedule string
	// SkipInitialRun disables the run performed at startup.
	SkipInitialRun bool
}

// Service watches the source tree and serializes runs.
type Service struct {
	run     RunFunc
	opts    Options
	exclude []glob.Glob
	ignore  []string
	sched   *Scheduler

	requests chan string
	ready    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New validates opts and prepares the scheduler. Nothing runs until Run is called.
func New(run RunFunc, opts Options) (*Service, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	s := &Service{run: run, opts: opts, requests: make(chan string, 1), ready: make(chan struct{})}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, ferrors.ConfigError("invalid watch exclusion pattern").
				WithCause(err).WithContext("pattern", p).Fatal().Build()
		}
		s.exclude = append(s.exclude, g)
	}
	for _, d := range opts.IgnoreDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = d
		}
		s.ignore = append(s.ignore, abs)
	}
	if opts.Interval > 0 || opts.Schedule != "" {
		sched, err := NewScheduler()
		if err != nil {
			return nil, err
		}
		if opts.Schedule != "" {
			err = sched.ScheduleCron(opts.Schedule, s.request)
		} else {
			err = sched.ScheduleInterval(opts.Interval, s.request)
		}
		if err != nil {
			_ = sched.Stop()
			return nil, err
		}
		s.sched = sched
	}
	return s, nil
}

// Trigger requests a debounced run.
func (s *Service) Trigger(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.request(reason) })
}

// Ready is closed once Run watches every root and the schedule is active.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// request queues a run immediately. At most one run is pending at a time.
func (s *Service) request(reason string) {
	select {
	case s.requests <- reason:
	default:
		slog.Debug("Run already pending", slog.String("reason", reason))
	}
}

// Run blocks until ctx is canceled, performing runs on demand. A Service runs once.
func (s *Service) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = w.Close() }()

	for _, root := range s.opts.Roots {
		if err := s.addRecursive(w, root); err != nil {
			return err
		}
	}
	if s.sched != nil {
		s.sched.Start()
		defer func() {
			if err := s.sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}
	defer s.stopTimer()
	close(s.ready)

	if !s.opts.SkipInitialRun {
		s.request("startup")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.worker(ctx)
	}()

	slog.Info("Watching for changes", slog.Any("roots", s.opts.Roots), slog.Duration("debounce", s.opts.Debounce))
	s.eventLoop(ctx, w)
	wg.Wait()
	return nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-s.requests:
			start := time.Now()
			slog.Info("Starting run", slog.String("reason", reason))
			if err := s.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Run failed", slog.String("reason", reason), logfields.Error(err))
				continue
			}
			slog.Debug("Run finished", slog.String("reason", reason), logfields.Duration(time.Since(start)))
		}
	}
}

func (s *Service) eventLoop(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			s.handleEvent(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Service) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if s.shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := s.addRecursive(w, ev.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	s.Trigger("change")
}

func (s *Service) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Service) addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch root is not accessible").
					WithContext("path", root).Fatal().Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (s.excludedDir(d.Name()) || s.ignored(p)) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func (s *Service) excludedDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, g := range s.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (s *Service) ignored(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, d := range s.ignore {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// shouldIgnore drops events that must not trigger runs: generated output, hidden and
// editor temporary files.
func (s *Service) shouldIgnore(p string) bool {
	if s.ignored(p) {
		return true
	}
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "#"):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
