// Package metrics provides observability hooks for compile-run metrics.
// Components receive a Recorder by injection; the default NoopRecorder
// keeps the hot path free of nil checks and conditional wiring.
package metrics

import "time"

// ResultLabel enumerates unit result categories for counters.
type ResultLabel string

const (
	ResultWritten   ResultLabel = "written"
	ResultUnchanged ResultLabel = "unchanged"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// Recorder defines observability hooks for run and stage metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncUnitResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|changed|failed
	IncPrunedFiles(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncUnitResult(string, ResultLabel)          {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) IncPrunedFiles(int)                         {}
