package pipeline

import (
	"sync"

	"git.home.luguber.info/inful/webcompile/internal/resolve"
)

// ErrorExitCode is the process exit code when any unit failed. It takes
// precedence over the configured changed-files code.
const ErrorExitCode = 1

// UnitState classifies one unit's outcome.
type UnitState int

const (
	StateWritten UnitState = iota
	StateUnchanged
	StateSkipped
	StateFailed
)

func (s UnitState) String() string {
	switch s {
	case StateWritten:
		return "written"
	case StateUnchanged:
		return "unchanged"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// UnitOutcome is the recorded result of one compilation unit.
type UnitOutcome struct {
	Unit       resolve.Unit
	State      UnitState
	OutputPath string   // resolved output path, relative to root
	Reason     string   // populated for StateSkipped
	Err        error    // populated for StateFailed
	Pruned     []string // stale hashed siblings removed alongside this unit
}

// RunResult accumulates per-unit outcomes across the run. Safe for use by
// concurrent workers within a stage.
type RunResult struct {
	mu       sync.Mutex
	outcomes []UnitOutcome
	changed  bool
	failed   bool
}

// NewRunResult creates an empty result.
func NewRunResult() *RunResult {
	return &RunResult{}
}

// Record appends an outcome and updates the run-level flags. Pruning a stale
// sibling is a filesystem change even when the kept output itself was
// untouched, so it raises the changed flag like a write does.
func (r *RunResult) Record(o UnitOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	if o.State == StateWritten || len(o.Pruned) > 0 {
		r.changed = true
	}
	if o.State == StateFailed {
		r.failed = true
	}
}

// Outcomes returns a copy of the recorded outcomes in record order.
func (r *RunResult) Outcomes() []UnitOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UnitOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// AnyChanged reports whether at least one unit was written or pruned a
// stale sibling.
func (r *RunResult) AnyChanged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// AnyFailed reports whether at least one unit failed.
func (r *RunResult) AnyFailed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Failures returns the failed outcomes in record order.
func (r *RunResult) Failures() []UnitOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failures []UnitOutcome
	for _, o := range r.outcomes {
		if o.State == StateFailed {
			failures = append(failures, o)
		}
	}
	return failures
}

// Diagnostics returns source path -> diagnostic for every failed unit,
// suitable for the run's failure summary.
func (r *RunResult) Diagnostics() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	diags := make(map[string]string)
	for _, o := range r.outcomes {
		if o.State == StateFailed && o.Err != nil {
			diags[o.Unit.Source] = o.Err.Error()
		}
	}
	return diags
}

// ExitCode finalizes the run into a process exit code: the error code when
// any unit failed, the configured changed code when any output changed,
// otherwise zero.
func (r *RunResult) ExitCode(changedCode int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.failed:
		return ErrorExitCode
	case r.changed:
		return changedCode
	default:
		return 0
	}
}
