// Package watch reruns the pipeline when the source tree changes or a schedule fires.
// File events are debounced and runs never overlap: requests arriving during a run are
// coalesced into one follow-up run.
package watch
