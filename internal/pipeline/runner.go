package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docweave/internal/collector"
	"git.home.luguber.info/inful/docweave/internal/config"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/git"
	"git.home.luguber.info/inful/docweave/internal/indexer"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/modmeta"
	"git.home.luguber.info/inful/docweave/internal/notify"
	"git.home.luguber.info/inful/docweave/internal/observability"
	"git.home.luguber.info/inful/docweave/internal/sidebar"
	"git.home.luguber.info/inful/docweave/internal/sitemap"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
	"git.home.luguber.info/inful/docweave/internal/workspace"
)

// Fetcher retrieves a remote source into a local directory.
type Fetcher interface {
	Fetch(ctx context.Context, src git.Source) (git.Result, error)
}

// Runner executes pipeline runs for one configuration. A Runner may be reused for
// successive runs but must not run concurrently with itself.
type Runner struct {
	cfg              *config.Config
	recorder         metrics.Recorder
	publisher        notify.Publisher
	now              func() time.Time
	workspaceFactory func() *workspace.Manager
	fetcherFactory   func(dir string) Fetcher
}

// NewRunner returns a Runner with no-op metrics and notifications.
func NewRunner(cfg *config.Config) *Runner {
	r := &Runner{
		cfg:       cfg,
		recorder:  metrics.NoopRecorder{},
		publisher: notify.Noop{},
		now:       time.Now,
	}
	r.workspaceFactory = func() *workspace.Manager {
		if cfg.Workspace != "" {
			return workspace.NewPersistentManager(cfg.Resolve(cfg.Workspace))
		}
		return workspace.NewManager("")
	}
	r.fetcherFactory = func(dir string) Fetcher {
		return git.NewClient(dir).WithRetryPolicy(cfg.RetryPolicy())
	}
	return r
}

// WithRecorder sets the metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithPublisher sets the run event publisher.
func (r *Runner) WithPublisher(p notify.Publisher) *Runner {
	if p != nil {
		r.publisher = p
	}
	return r
}

// WithClock overrides time.Now for stamping generated files.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// WithWorkspaceFactory allows injecting a custom workspace factory (for testing).
func (r *Runner) WithWorkspaceFactory(f func() *workspace.Manager) *Runner {
	r.workspaceFactory = f
	return r
}

// WithFetcherFactory allows injecting a custom fetcher (for testing).
func (r *Runner) WithFetcherFactory(f func(dir string) Fetcher) *Runner {
	r.fetcherFactory = f
	return r
}

// runState carries stage outputs to later stages of the same run.
type runState struct {
	plan     Plan
	tax      taxonomy.Taxonomy
	checkout string
	col      *collector.Collector
	inv      *modmeta.Inventory
	idx      *indexer.Index
	report   *Report
	ws       *workspace.Manager
}

// stageFunc runs one stage and returns the counts of handled items. Warnings go to
// st.report.Warnings; a returned error is fatal.
type stageFunc func(ctx context.Context, st *runState) (processed, failed int, err error)

// Run executes the plan for the requested stages (all when none are given). The report is
// returned even when a stage fails; the error is the fatal stage error.
func (r *Runner) Run(ctx context.Context, stages ...StageName) (*Report, error) {
	plan, err := NewPlan(stages...)
	if err != nil {
		return nil, ferrors.ValidationError(err.Error()).Fatal().Build()
	}

	report := &Report{RunID: uuid.NewString(), Start: r.now()}
	ctx = observability.WithRunID(ctx, report.RunID)
	st := &runState{plan: plan, tax: r.cfg.Taxonomy(), report: report}
	defer st.cleanup()

	observability.InfoContext(ctx, "Starting run", slog.Any("stages", plan.Stages))

	funcs := map[StageName]stageFunc{
		StageFetch:     r.fetch,
		StageCollect:   r.collect,
		StageAuxiliary: r.auxiliary,
		StageMetadata:  r.metadata,
		StageIndex:     r.index,
		StageSidebar:   r.sidebar,
		StageDocsIndex: r.docsIndex,
		StageSitemap:   r.sitemap,
	}

	var runErr error
	for _, name := range plan.Stages {
		if err := ctx.Err(); err != nil {
			report.Stages = append(report.Stages, StageResult{Name: name, Result: metrics.ResultCanceled, Err: err})
			r.recorder.IncStageResult(string(name), metrics.ResultCanceled)
			runErr = err
			break
		}
		res := r.runStage(observability.WithStage(ctx, string(name)), name, funcs[name], st)
		report.Stages = append(report.Stages, res)
		if res.Err != nil {
			runErr = res.Err
			break
		}
	}
	if report.Commit != "" {
		ctx = observability.WithCommit(ctx, report.Commit)
	}

	report.finish(r.now(), runErr)
	r.recorder.ObserveRunDuration(report.Duration())
	r.recorder.IncRunOutcome(report.Outcome)
	r.logSummary(ctx, report)
	r.publish(ctx, report)
	return report, runErr
}

func (r *Runner) runStage(ctx context.Context, name StageName, fn stageFunc, st *runState) StageResult {
	start := time.Now()
	warningsBefore := len(st.report.Warnings)
	processed, failed, err := fn(ctx, st)
	res := StageResult{Name: name, Processed: processed, Failed: failed, Duration: time.Since(start), Err: err}

	switch {
	case errors.Is(err, errSkipped):
		res.Err = nil
		res.Result = metrics.ResultSkipped
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		res.Result = metrics.ResultCanceled
	case err != nil:
		res.Result = metrics.ResultFatal
	case failed > 0 || len(st.report.Warnings) > warningsBefore:
		res.Result = metrics.ResultWarning
	default:
		res.Result = metrics.ResultSuccess
	}

	r.recorder.ObserveStageDuration(string(name), res.Duration)
	r.recorder.IncStageResult(string(name), res.Result)
	r.recorder.AddStageItems(string(name), processed, failed)

	attrs := []slog.Attr{
		logfields.Status(string(res.Result)),
		logfields.Count(processed),
		logfields.Failed(failed),
		logfields.Duration(res.Duration),
	}
	if res.Err != nil {
		observability.ErrorContext(ctx, "Stage failed", append(attrs, logfields.Error(res.Err))...)
	} else {
		observability.InfoContext(ctx, "Stage complete", attrs...)
	}
	return res
}

// errSkipped marks a stage with nothing to do.
var errSkipped = errors.New("stage skipped")

func (st *runState) cleanup() {
	if st.ws == nil {
		return
	}
	if err := st.ws.Cleanup(); err != nil {
		slog.Warn("Failed to clean up workspace", logfields.Path(st.ws.Path()), logfields.Error(err))
	}
}

// base is the directory relative source paths resolve against: the checkout for a remote
// source, otherwise "" for the configuration directory.
func (st *runState) base() string { return st.checkout }

func (r *Runner) fetch(ctx context.Context, st *runState) (int, int, error) {
	src, ok := r.cfg.GitSource()
	if !ok {
		return 0, 0, errSkipped
	}
	ws := r.workspaceFactory()
	if err := ws.Create(); err != nil {
		return 0, 1, err
	}
	st.ws = ws

	res, err := r.fetcherFactory(ws.Path()).Fetch(ctx, src)
	r.recorder.ObserveFetchDuration(res.Duration, err == nil)
	if err != nil {
		return 0, 1, err
	}
	st.checkout = res.Path
	st.report.Commit = res.Commit
	return 1, 0, nil
}

func (r *Runner) newCollector(st *runState) (*collector.Collector, error) {
	if st.col != nil {
		return st.col, nil
	}
	c, err := collector.New(collector.Options{
		SourceRoot: r.cfg.SourceRoot(st.base()),
		TargetRoot: r.cfg.TargetRoot(),
		Patterns:   r.cfg.Source.Patterns,
		Exclude:    r.cfg.Source.Exclude,
		Mapper:     r.cfg.Mapper(),
		Rewriter:   r.cfg.Rewriter(),
		TitleMode:  r.cfg.TitleMode(),
		Workers:    r.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	st.col = c
	return c, nil
}

func (r *Runner) collect(ctx context.Context, st *runState) (int, int, error) {
	c, err := r.newCollector(st)
	if err != nil {
		return 0, 0, err
	}
	docs, err := c.Collect(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(docs) == 0 {
		observability.WarnContext(ctx, "No documentation files matched", logfields.Path(r.cfg.SourceRoot(st.base())))
	}
	sum, err := c.MaterializeAll(ctx, docs)
	if err != nil {
		return 0, 0, err
	}
	addFailures(st.report, sum)
	return sum.Processed, sum.Failed, nil
}

func (r *Runner) auxiliary(ctx context.Context, st *runState) (int, int, error) {
	if len(r.cfg.Source.AuxiliaryDocs) == 0 {
		return 0, 0, errSkipped
	}
	c, err := r.newCollector(st)
	if err != nil {
		return 0, 0, err
	}
	sum := c.CopyAuxiliaryDocs(r.cfg.Source.AuxiliaryDocs)
	addFailures(st.report, sum)
	observability.DebugContext(ctx, "Auxiliary documents copied", slog.Int("skipped", sum.Skipped))
	return sum.Processed, sum.Failed, nil
}

func addFailures(report *Report, sum collector.Summary) {
	for _, f := range sum.Failures {
		report.Warnings = append(report.Warnings, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
}

func (r *Runner) metadata(ctx context.Context, st *runState) (int, int, error) {
	root := r.cfg.ImplementationRoot(st.base())
	scanner := modmeta.NewScanner(st.tax, modmeta.Options{
		Root:       root,
		Extensions: r.cfg.Implementation.Extensions,
		Skip:       append(skipDirs(root, r.cfg.TargetRoot()), r.cfg.Source.Exclude...),
		Now:        r.now,
	})
	inv, err := scanner.Scan(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err := inv.WriteJSON(r.cfg.OutputPath(r.cfg.Outputs.Metadata)); err != nil {
		return 0, 1, err
	}
	st.inv = inv
	st.report.Modules = inv.Statistics.Total
	r.recorder.SetModules(string(taxonomy.StatusStable), inv.Statistics.Stable)
	r.recorder.SetModules(string(taxonomy.StatusBeta), inv.Statistics.Beta)
	r.recorder.SetModules(string(taxonomy.StatusExperimental), inv.Statistics.Experimental)
	r.recorder.SetModules(string(taxonomy.StatusDeprecated), inv.Statistics.Deprecated)
	return inv.Statistics.Total, 0, nil
}

// skipDirs returns the first-level directory of root that holds target, so the generated
// tree is never scanned as a module.
func skipDirs(root, target string) []string {
	absRoot, err1 := filepath.Abs(root)
	absTarget, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return nil
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return []string{first}
}

func (r *Runner) index(ctx context.Context, st *runState) (int, int, error) {
	ix, err := indexer.New(r.cfg.TargetRoot(), st.tax, indexer.Options{
		Locale:       r.cfg.Locale(),
		ExcludeFiles: r.cfg.IndexExcludeFiles(),
		Now:          r.now,
	})
	if err != nil {
		return 0, 0, err
	}
	idx, err := ix.Index(ctx)
	if err != nil {
		return 0, 0, err
	}
	st.idx = idx
	st.report.Documents = len(idx.Documents)
	if idx.Failed > 0 {
		st.report.Warnings = append(st.report.Warnings, fmt.Errorf("%d documents could not be indexed", idx.Failed))
	}
	return len(idx.Documents), idx.Failed, nil
}

func (r *Runner) sidebar(ctx context.Context, st *runState) (int, int, error) {
	inv := st.inv
	if inv == nil {
		var err error
		if inv, err = modmeta.ReadJSON(r.cfg.OutputPath(r.cfg.Outputs.Metadata)); err != nil {
			observability.WarnContext(ctx, "Module metadata unreadable; rendering plain module entries", logfields.Error(err))
			st.report.Warnings = append(st.report.Warnings, err)
		}
	}
	lines := sidebar.New(st.tax, r.cfg.SidebarLayout(), r.now).Render(st.idx, inv)
	if err := sidebar.Write(r.cfg.OutputPath(r.cfg.Outputs.Sidebar), lines); err != nil {
		return 0, 1, err
	}
	return len(lines), 0, nil
}

func (r *Runner) docsIndex(_ context.Context, st *runState) (int, int, error) {
	if err := st.idx.WriteJSON(r.cfg.OutputPath(r.cfg.Outputs.DocsIndex)); err != nil {
		return 0, 1, err
	}
	return len(st.idx.Documents), 0, nil
}

func (r *Runner) sitemap(_ context.Context, st *runState) (int, int, error) {
	xmlName := ""
	if r.cfg.Outputs.BaseURL != "" {
		xmlName = r.cfg.Outputs.SitemapXML
	}
	gen := sitemap.New(sitemap.Options{BaseURL: r.cfg.Outputs.BaseURL})
	if err := gen.Write(st.idx, r.cfg.TargetRoot(), r.cfg.Outputs.SitemapMarkdown, xmlName); err != nil {
		return 0, 1, err
	}
	return len(st.idx.Documents), 0, nil
}

func (r *Runner) logSummary(ctx context.Context, report *Report) {
	attrs := []slog.Attr{
		logfields.Status(string(report.Outcome)),
		slog.Int("documents", report.Documents),
		slog.Int("modules", report.Modules),
		slog.Int("warnings", len(report.Warnings)),
		logfields.Duration(report.Duration()),
	}
	if report.Err != nil {
		observability.ErrorContext(ctx, "Run failed", append(attrs, logfields.Error(report.Err))...)
		return
	}
	observability.InfoContext(ctx, "Run complete", attrs...)
}

func (r *Runner) publish(ctx context.Context, report *Report) {
	// The run context may already be canceled; delivery gets its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, report.Event()); err != nil {
		observability.WarnContext(ctx, "Failed to publish run event", logfields.Error(err))
	}
}
