package pipeline

import (
	"bytes"
	"context"
	stdErrors "errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/webcompile/internal/backend"
	wcErrors "git.home.luguber.info/inful/webcompile/internal/errors"
	"git.home.luguber.info/inful/webcompile/internal/hashname"
	"git.home.luguber.info/inful/webcompile/internal/metrics"
	"git.home.luguber.info/inful/webcompile/internal/observability"
	"git.home.luguber.info/inful/webcompile/internal/registry"
	"git.home.luguber.info/inful/webcompile/internal/resolve"
	"git.home.luguber.info/inful/webcompile/internal/textenc"
	"git.home.luguber.info/inful/webcompile/internal/vcs"
)

// Runner executes one compilation unit: read, compile, name, idempotent
// write, registry registration, stale pruning. It owns all filesystem writes.
type Runner struct {
	Root     string
	TestRun  bool
	Registry *registry.Registry
	VCS      vcs.Registrar
	Recorder metrics.Recorder
}

// Run executes the unit against the backend and returns its outcome. Errors
// are captured in the outcome, never returned past the orchestrator.
func (r *Runner) Run(ctx context.Context, unit resolve.Unit, be backend.Backend, opts backend.Options, codec *textenc.Codec) UnitOutcome {
	ctx = observability.WithUnit(ctx, unit.Source)

	outcome := r.run(ctx, unit, be, opts, codec)
	if r.Recorder != nil {
		r.Recorder.IncUnitResult(unit.Kind.String(), resultLabel(outcome.State))
		if n := len(outcome.Pruned); n > 0 {
			r.Recorder.IncPrunedFiles(n)
		}
	}
	return outcome
}

func (r *Runner) run(ctx context.Context, unit resolve.Unit, be backend.Backend, opts backend.Options, codec *textenc.Codec) UnitOutcome {
	fail := func(err error) UnitOutcome {
		observability.ErrorContext(ctx, "Unit failed", slog.String("error", err.Error()))
		return UnitOutcome{Unit: unit, State: StateFailed, Err: err}
	}

	absSource := filepath.Join(r.Root, filepath.FromSlash(unit.Source))
	raw, err := os.ReadFile(absSource)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(wcErrors.SourceNotFound(unit.Source))
		}
		return fail(wcErrors.ReadFailed(unit.Source, err))
	}

	source, err := codec.Decode(raw)
	if err != nil {
		return fail(wcErrors.ReadFailed(unit.Source, err))
	}

	res, err := be.Compile(ctx, source, unit.Source, opts)
	if err != nil {
		return fail(classifyCompileError(unit.Source, err))
	}

	output, err := codec.Encode(res.Output)
	if err != nil {
		return fail(wcErrors.CompileFailed(unit.Source, err))
	}

	// The digest covers the final output bytes, so naming and the
	// changed/unchanged decision always agree.
	resolved := hashname.Resolve(unit.OutputTemplate, output)
	absResolved := filepath.Join(r.Root, filepath.FromSlash(resolved))

	wrote, err := r.updateFile(ctx, absResolved, resolved, output)
	if err != nil {
		return fail(err)
	}

	if opts.SourceMap && len(res.SourceMap) > 0 {
		mapRel := path.Join(path.Dir(resolved), path.Base(unit.Source)+".map.json")
		mapAbs := filepath.Join(r.Root, filepath.FromSlash(mapRel))
		encodedMap, encErr := codec.Encode(res.SourceMap)
		if encErr != nil {
			return fail(wcErrors.CompileFailed(unit.Source, encErr))
		}
		mapWrote, mapErr := r.updateFile(ctx, mapAbs, mapRel, encodedMap)
		if mapErr != nil {
			return fail(mapErr)
		}
		wrote = wrote || mapWrote
	}

	if unit.Kind == resolve.KindStyle || unit.Kind == resolve.KindScript {
		r.Registry.Register(unit.Source, resolved)
	}

	pruned := r.pruneStale(ctx, unit, resolved)

	state := StateUnchanged
	if wrote {
		state = StateWritten
		observability.InfoContext(ctx, "Compiled",
			slog.String("output", resolved))
	} else {
		observability.DebugContext(ctx, "Already exists",
			slog.String("output", resolved))
	}
	return UnitOutcome{Unit: unit, State: state, OutputPath: resolved, Pruned: pruned}
}

// updateFile performs the idempotent write: skip when the on-disk bytes are
// identical, otherwise write and register newly created files for the index.
// In test-run mode the decision is reported without any filesystem mutation.
func (r *Runner) updateFile(ctx context.Context, abs, rel string, content []byte) (bool, error) {
	existing, err := os.ReadFile(abs)
	exists := err == nil
	if exists && bytes.Equal(existing, content) {
		return false, nil
	}

	if r.TestRun {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return false, wcErrors.WriteFailed(rel, err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return false, wcErrors.WriteFailed(rel, err)
	}
	if !exists {
		if err := r.VCS.Add(rel); err != nil {
			observability.WarnContext(ctx, "Git index add failed",
				slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	return true, nil
}

// pruneStale removes previously hashed siblings of the unit's output and
// stages their deletion. Prune failures degrade to warnings; the compiled
// output itself is already in place.
func (r *Runner) pruneStale(ctx context.Context, unit resolve.Unit, resolved string) []string {
	if !hashname.HasToken(unit.OutputTemplate) {
		return nil
	}
	absTemplate := filepath.Join(r.Root, filepath.FromSlash(unit.OutputTemplate))
	absResolved := filepath.Join(r.Root, filepath.FromSlash(resolved))

	removed, err := hashname.PruneStale(absTemplate, absResolved, r.TestRun)
	if err != nil {
		observability.WarnContext(ctx, "Stale output pruning failed",
			slog.String("error", err.Error()))
	}

	pruned := make([]string, 0, len(removed))
	for _, abs := range removed {
		rel, relErr := filepath.Rel(r.Root, abs)
		if relErr != nil {
			rel = abs
		}
		rel = filepath.ToSlash(rel)
		pruned = append(pruned, rel)
		observability.InfoContext(ctx, "Removed stale output", slog.String("path", rel))
		if !r.TestRun {
			if err := r.VCS.Remove(rel); err != nil {
				observability.WarnContext(ctx, "Git index remove failed",
					slog.String("path", rel), slog.String("error", err.Error()))
			}
		}
	}
	if len(pruned) == 0 {
		return nil
	}
	return pruned
}

// classifyCompileError keeps structured errors (dangling references from the
// template stage) intact and wraps everything else as a compile failure.
func classifyCompileError(source string, err error) error {
	var wce *wcErrors.WebCompileError
	if stdErrors.As(err, &wce) {
		return wce
	}
	return wcErrors.CompileFailed(source, err)
}

func resultLabel(s UnitState) metrics.ResultLabel {
	switch s {
	case StateWritten:
		return metrics.ResultWritten
	case StateUnchanged:
		return metrics.ResultUnchanged
	case StateSkipped:
		return metrics.ResultSkipped
	}
	return metrics.ResultFailed
}
