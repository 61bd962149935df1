package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("collect", time.Second)
	r.ObserveRunDuration(time.Second)
	r.IncStageResult("collect", ResultSuccess)
	r.IncRunOutcome(OutcomeSuccess)
	r.AddStageItems("collect", 3, 1)
	r.ObserveFetchDuration(time.Second, true)
	r.SetModules("stable", 2)
	r.SetBrokenLinks(0)
}
