package pipeline

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/webcompile/internal/backend"
	"git.home.luguber.info/inful/webcompile/internal/config"
	wcErrors "git.home.luguber.info/inful/webcompile/internal/errors"
	"git.home.luguber.info/inful/webcompile/internal/hashname"
)

// fakeBackend applies a fixed transform, standing in for an external compiler.
type fakeBackend struct {
	transform func(src []byte) ([]byte, error)
	sourceMap []byte
}

func (f *fakeBackend) Compile(_ context.Context, src []byte, srcPath string, opts backend.Options) (*backend.Result, error) {
	out, err := f.transform(src)
	if err != nil {
		return nil, err
	}
	res := &backend.Result{Output: out}
	if opts.SourceMap {
		res.SourceMap = f.sourceMap
	}
	return res, nil
}

func passthrough() *fakeBackend {
	return &fakeBackend{transform: func(src []byte) ([]byte, error) {
		return append([]byte("compiled:"), src...), nil
	}}
}

func failing(msg string) *fakeBackend {
	return &fakeBackend{transform: func([]byte) ([]byte, error) {
		return nil, stdErrors.New(msg)
	}}
}

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func baseConfig() *config.Config {
	cfg := &config.Config{ExitCode: config.DefaultChangedExitCode}
	cfg.Sass.Format = "compressed"
	cfg.Sass.Precision = 5
	return cfg
}

func newTestOrchestrator(root string, cfg *config.Config) *Orchestrator {
	o := New(root, cfg)
	o.Backends = Backends{
		Style:    passthrough(),
		Script:   passthrough(),
		Template: backend.NewTemplate(),
	}
	return o
}

func statesBySource(result *RunResult) map[string]UnitState {
	out := map[string]UnitState{}
	for _, o := range result.Outcomes() {
		out[o.Unit.Source] = o.State
	}
	return out
}

func TestRunWritesOutputs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "body {}")

	cfg := baseConfig()
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	assert.True(t, result.AnyChanged())
	assert.Equal(t, "compiled:body {}", readOutput(t, root, "dist/a.css"))
}

func TestIdempotence(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "body {}")
	writeSource(t, root, "src/app.js", "var a=1;")

	cfg := baseConfig()
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}
	cfg.JS.Files = map[string]string{"src/app.js": "dist/app.min.js"}

	_, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.False(t, result.AnyChanged())
	for _, o := range result.Outcomes() {
		assert.Equal(t, StateUnchanged, o.State, o.Unit.Source)
	}
}

func TestHashedOutputLifecycle(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "content X")

	cfg := baseConfig()
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.[hash].css"}

	hashX := hashname.Hash([]byte("compiled:content X"))
	hashY := hashname.Hash([]byte("compiled:content Y"))

	// first run writes the hashed output
	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	require.Len(t, result.Outcomes(), 1)
	assert.Equal(t, "dist/a."+hashX+".css", result.Outcomes()[0].OutputPath)
	assert.FileExists(t, filepath.Join(root, "dist", "a."+hashX+".css"))

	// unchanged rerun: no new file, exit 0
	result, code, err = newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, StateUnchanged, result.Outcomes()[0].State)

	entries, err := os.ReadDir(filepath.Join(root, "dist"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// edit: new hash written, stale sibling removed
	writeSource(t, root, "src/a.scss", "content Y")
	result, code, err = newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	assert.Equal(t, []string{"dist/a." + hashX + ".css"}, result.Outcomes()[0].Pruned)
	assert.FileExists(t, filepath.Join(root, "dist", "a."+hashY+".css"))
	assert.NoFileExists(t, filepath.Join(root, "dist", "a."+hashX+".css"))
}

func TestPruneWithoutWriteCountsAsChanged(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "content X")

	cfg := baseConfig()
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.[hash].css"}

	_, _, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)

	// A leftover sibling from an earlier hash scheme: the rerun writes
	// nothing but must still remove it and report a change.
	stale := filepath.Join(root, "dist", "a.000000000000.css")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	assert.True(t, result.AnyChanged())

	require.Len(t, result.Outcomes(), 1)
	assert.Equal(t, StateUnchanged, result.Outcomes()[0].State)
	assert.Equal(t, []string{"dist/a.000000000000.css"}, result.Outcomes()[0].Pruned)
	assert.NoFileExists(t, stale)
}

func TestTemplateReferencesCompiledName(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "styles")
	writeSource(t, root, "src/index.j2", `<link href="{{ compiledName "src/a.scss" }}">`)

	cfg := baseConfig()
	cfg.Sass.Hash = true
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.[hash].css"}
	cfg.Jinja.Files = map[string]string{"src/index.j2": "index.html"}

	_, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)

	h := hashname.Hash([]byte("compiled:styles"))
	assert.Equal(t, "<link href=\"a."+h+".css\">\n", readOutput(t, root, "index.html"))
}

func TestTemplateDanglingReferenceFails(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/index.j2", `{{ compiledName "src/never-compiled.scss" }}`)

	cfg := baseConfig()
	cfg.Jinja.Files = map[string]string{"src/index.j2": "index.html"}

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ErrorExitCode, code)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.True(t, wcErrors.IsCategory(failures[0].Err, wcErrors.CategoryReference))
	assert.NoFileExists(t, filepath.Join(root, "index.html"))
}

func TestStopOnErrorSkipsRemainingUnits(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "a")
	writeSource(t, root, "src/b.scss", "b")
	writeSource(t, root, "src/app.js", "var a=1;")

	cfg := baseConfig()
	cfg.Sass.Files = map[string]string{
		"src/a.scss": "dist/a.css",
		"src/b.scss": "dist/b.css",
	}
	cfg.JS.Files = map[string]string{"src/app.js": "dist/app.min.js"}

	o := newTestOrchestrator(root, cfg)
	o.Backends.Style = failing("boom")

	result, code, err := o.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ErrorExitCode, code)

	states := statesBySource(result)
	assert.Equal(t, StateFailed, states["src/a.scss"])
	assert.Equal(t, StateSkipped, states["src/b.scss"])
	assert.Equal(t, StateSkipped, states["src/app.js"])
}

func TestContinueOnErrorRunsEverything(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "a")
	writeSource(t, root, "src/app.js", "var a=1;")

	cfg := baseConfig()
	cfg.ContinueOnError = true
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}
	cfg.JS.Files = map[string]string{"src/app.js": "dist/app.min.js"}

	o := newTestOrchestrator(root, cfg)
	o.Backends.Style = failing("boom")

	result, code, err := o.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ErrorExitCode, code)

	states := statesBySource(result)
	assert.Equal(t, StateFailed, states["src/a.scss"])
	assert.Equal(t, StateWritten, states["src/app.js"])

	diags := result.Diagnostics()
	require.Len(t, diags, 1)
	assert.Contains(t, diags["src/a.scss"], "boom")
}

func TestMissingSourceIsPerUnitFailure(t *testing.T) {
	root := t.TempDir()

	cfg := baseConfig()
	cfg.ContinueOnError = true
	cfg.Sass.Files = map[string]string{"src/missing.scss": "dist/missing.css"}

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ErrorExitCode, code)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.True(t, wcErrors.IsCategory(failures[0].Err, wcErrors.CategoryIO))
	assert.Contains(t, failures[0].Err.Error(), "path does not exist")
}

func TestTestRunLeavesFilesystemUntouched(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "body {}")

	cfg := baseConfig()
	cfg.TestRun = true
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	assert.True(t, result.AnyChanged())
	assert.NoFileExists(t, filepath.Join(root, "dist", "a.css"))
	assert.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestSourceMapSideCar(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "body {}")

	cfg := baseConfig()
	cfg.Sass.SourceMap = true
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}

	o := newTestOrchestrator(root, cfg)
	o.Backends.Style = &fakeBackend{
		transform: func(src []byte) ([]byte, error) { return src, nil },
		sourceMap: []byte(`{"version":3}`),
	}

	_, _, err := o.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"version":3}`, readOutput(t, root, "dist/a.scss.map.json"))
}

func TestExitCodePrecedence(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/good.scss", "ok")
	writeSource(t, root, "src/app.js", "var a=1;")

	cfg := baseConfig()
	cfg.ContinueOnError = true
	cfg.Sass.Files = map[string]string{"src/good.scss": "dist/good.css"}
	cfg.JS.Files = map[string]string{"src/app.js": "dist/app.min.js"}

	o := newTestOrchestrator(root, cfg)
	o.Backends.Script = failing("broken")

	// a write happened and a failure happened: error code wins
	result, code, err := o.RunAll(context.Background())
	require.NoError(t, err)
	assert.True(t, result.AnyChanged())
	assert.True(t, result.AnyFailed())
	assert.Equal(t, ErrorExitCode, code)
}

func TestConfiguredChangedCode(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "x")

	cfg := baseConfig()
	cfg.ExitCode = 42
	cfg.Sass.Files = map[string]string{"src/a.scss": "dist/a.css"}

	_, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, code)
}

func TestConfigurationErrorEscapes(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/a.scss", "x")

	cfg := baseConfig()
	cfg.Sass.Paths = []string{"src"}
	cfg.Sass.Translate = []string{"nowhere:dist"}

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, ErrorExitCode, code)
	assert.True(t, wcErrors.IsCategory(err, wcErrors.CategoryConfig))
}

func TestParallelStageWorkers(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		writeSource(t, root, "src/"+name+".scss", "content "+name)
		files["src/"+name+".scss"] = "dist/" + name + ".css"
	}

	cfg := baseConfig()
	cfg.Jobs = 4
	cfg.Sass.Files = files

	result, code, err := newTestOrchestrator(root, cfg).RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangedExitCode, code)
	assert.Len(t, result.Outcomes(), 6)
	for name := range files {
		out := "dist/" + name[len("src/"):len(name)-len(".scss")] + ".css"
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(out)))
	}
}
