// Package pipeline sequences the style, script, and template stages over the
// resolved unit lists and finalizes the run into a single exit code.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/webcompile/internal/backend"
	"git.home.luguber.info/inful/webcompile/internal/config"
	"git.home.luguber.info/inful/webcompile/internal/errors"
	"git.home.luguber.info/inful/webcompile/internal/metrics"
	"git.home.luguber.info/inful/webcompile/internal/observability"
	"git.home.luguber.info/inful/webcompile/internal/registry"
	"git.home.luguber.info/inful/webcompile/internal/resolve"
	"git.home.luguber.info/inful/webcompile/internal/textenc"
	"git.home.luguber.info/inful/webcompile/internal/vcs"
)

// Backends holds the per-kind compilation backends.
type Backends struct {
	Style    backend.Backend
	Script   backend.Backend
	Template backend.Backend
}

// DefaultBackends returns the reference backend set.
func DefaultBackends() Backends {
	return Backends{
		Style:    backend.NewStyle(),
		Script:   backend.NewScript(),
		Template: backend.NewTemplate(),
	}
}

// Orchestrator runs the full compile pipeline for one configuration.
type Orchestrator struct {
	Root     string
	Config   *config.Config
	Backends Backends
	VCS      vcs.Registrar
	Recorder metrics.Recorder
}

// New creates an orchestrator with the reference backends and no-op
// collaborators; callers override fields as needed.
func New(root string, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		Root:     root,
		Config:   cfg,
		Backends: DefaultBackends(),
		VCS:      vcs.Noop{},
		Recorder: metrics.NoopRecorder{},
	}
}

// stage couples one stage's units with its backend and options.
type stage struct {
	name  string
	units []resolve.Unit
	be    backend.Backend
	opts  backend.Options
	codec *textenc.Codec
}

// RunAll resolves the configuration and executes every stage in fixed order:
// styles, then scripts, then templates. Only configuration errors escape;
// per-unit errors land in the RunResult.
func (o *Orchestrator) RunAll(ctx context.Context) (*RunResult, int, error) {
	start := time.Now()

	plan, err := resolve.Resolve(o.Root, o.Config)
	if err != nil {
		return nil, ErrorExitCode, err
	}

	reg := registry.New()
	stages, err := o.stages(plan, reg)
	if err != nil {
		return nil, ErrorExitCode, err
	}

	runner := &Runner{
		Root:     o.Root,
		TestRun:  o.Config.TestRun,
		Registry: reg,
		VCS:      o.VCS,
		Recorder: o.Recorder,
	}

	result := NewRunResult()
	stopOnError := !o.Config.ContinueOnError
	stopped := false

	for _, st := range stages {
		stageCtx := observability.WithStage(ctx, st.name)
		if stopped {
			o.skipAll(st, result, "previous failure")
			continue
		}

		stageStart := time.Now()
		o.runStage(stageCtx, st, runner, result, stopOnError)
		o.Recorder.ObserveStageDuration(st.name, time.Since(stageStart))

		if stopOnError && result.AnyFailed() {
			stopped = true
		}
	}

	o.Recorder.ObserveRunDuration(time.Since(start))
	code := result.ExitCode(o.Config.ExitCode)
	o.Recorder.IncRunOutcome(outcomeLabel(result))

	observability.InfoContext(ctx, "Run finished",
		slog.Int("units", len(result.Outcomes())),
		slog.Int("failed", len(result.Failures())),
		slog.Bool("changed", result.AnyChanged()),
		slog.Int("exit_code", code))
	return result, code, nil
}

// stages builds the execution sequence. The template stage must run strictly
// after styles and scripts: its lookup function reads the registry those
// stages populate.
func (o *Orchestrator) stages(plan *resolve.Plan, reg *registry.Registry) ([]stage, error) {
	styleCodec, err := codecFor("sass.encoding", o.Config.Sass.Encoding)
	if err != nil {
		return nil, err
	}
	scriptCodec, err := codecFor("js.encoding", o.Config.JS.Encoding)
	if err != nil {
		return nil, err
	}
	templateCodec, err := codecFor("jinja.encoding", o.Config.Jinja.Encoding)
	if err != nil {
		return nil, err
	}

	return []stage{
		{
			name:  resolve.KindStyle.String(),
			units: plan.Styles,
			be:    o.Backends.Style,
			opts: backend.Options{
				OutputFormat: o.Config.Sass.Format,
				Precision:    o.Config.Sass.Precision,
				SourceMap:    o.Config.Sass.SourceMap,
			},
			codec: styleCodec,
		},
		{
			name:  resolve.KindScript.String(),
			units: plan.Scripts,
			be:    o.Backends.Script,
			opts: backend.Options{
				KeepComments: o.Config.JS.Comments,
			},
			codec: scriptCodec,
		},
		{
			name:  resolve.KindTemplate.String(),
			units: plan.Templates,
			be:    o.Backends.Template,
			opts: backend.Options{
				Vars:   o.Config.Jinja.Variables,
				Lookup: reg.Lookup,
				Root:   o.Root,
			},
			codec: templateCodec,
		},
	}, nil
}

// runStage executes one stage's units, serially or with a bounded worker
// pool. Under stop-on-error, not-yet-started units are skipped once a failure
// is observed; already-started units finish.
func (o *Orchestrator) runStage(ctx context.Context, st stage, runner *Runner, result *RunResult, stopOnError bool) {
	workers := o.Config.Jobs
	if workers > len(st.units) {
		workers = len(st.units)
	}
	if workers <= 1 {
		for i, unit := range st.units {
			outcome := runner.Run(ctx, unit, st.be, st.opts, st.codec)
			result.Record(outcome)
			if stopOnError && outcome.State == StateFailed {
				o.skipAll(stage{name: st.name, units: st.units[i+1:]}, result, "previous failure")
				return
			}
		}
		return
	}

	var failed atomic.Bool
	tasks := make(chan resolve.Unit)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range tasks {
				if stopOnError && failed.Load() {
					result.Record(UnitOutcome{Unit: unit, State: StateSkipped, Reason: "previous failure"})
					continue
				}
				outcome := runner.Run(ctx, unit, st.be, st.opts, st.codec)
				result.Record(outcome)
				if outcome.State == StateFailed {
					failed.Store(true)
				}
			}
		}()
	}
	for _, unit := range st.units {
		tasks <- unit
	}
	close(tasks)
	wg.Wait()
}

func (o *Orchestrator) skipAll(st stage, result *RunResult, reason string) {
	for _, unit := range st.units {
		result.Record(UnitOutcome{Unit: unit, State: StateSkipped, Reason: reason})
	}
}

func codecFor(field, name string) (*textenc.Codec, error) {
	codec, err := textenc.Lookup(name)
	if err != nil {
		return nil, errors.ValidationFailed(field, err.Error())
	}
	return codec, nil
}

func outcomeLabel(result *RunResult) string {
	switch {
	case result.AnyFailed():
		return "failed"
	case result.AnyChanged():
		return "changed"
	default:
		return "success"
	}
}
