package pipeline

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/notify"
)

// StageResult records one executed stage.
type StageResult struct {
	Name      StageName
	Result    metrics.ResultLabel
	Processed int
	Failed    int
	Duration  time.Duration
	Err       error
}

// Report is the outcome of a run.
type Report struct {
	RunID     string
	Start     time.Time
	End       time.Time
	Outcome   metrics.OutcomeLabel
	Commit    string
	Documents int
	Modules   int
	Stages    []StageResult
	// Warnings are per-item failures; they never abort a run.
	Warnings []error
	// Err is the fatal error that stopped the run, if any.
	Err error
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Stage returns the result of a stage, if it ran.
func (r *Report) Stage(name StageName) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// finish stamps the outcome. Per-item failures leave a run successful; they are counted
// in Warnings.
func (r *Report) finish(end time.Time, err error) {
	r.End = end
	r.Err = err
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		r.Outcome = metrics.OutcomeCanceled
	case err != nil:
		r.Outcome = metrics.OutcomeFailed
	default:
		r.Outcome = metrics.OutcomeSuccess
	}
}

// Event converts the report into a run notification.
func (r *Report) Event() notify.Event {
	ev := notify.Event{
		Type:       notify.EventRunCompleted,
		RunID:      r.RunID,
		Outcome:    string(r.Outcome),
		Started:    r.Start.UTC(),
		DurationMS: float64(r.Duration().Milliseconds()),
		Commit:     r.Commit,
		Documents:  r.Documents,
		Modules:    r.Modules,
		Warnings:   len(r.Warnings),
		Stages:     make([]notify.StageSummary, 0, len(r.Stages)),
	}
	if r.Err != nil {
		ev.Type = notify.EventRunFailed
		ev.Error = r.Err.Error()
	}
	for _, s := range r.Stages {
		ev.Stages = append(ev.Stages, notify.StageSummary{
			Name:       string(s.Name),
			Status:     string(s.Result),
			Processed:  s.Processed,
			Failed:     s.Failed,
			DurationMS: float64(s.Duration.Milliseconds()),
		})
	}
	return ev
}
