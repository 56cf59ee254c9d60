package backend

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wcErrors "git.home.luguber.info/inful/webcompile/internal/errors"
	"git.home.luguber.info/inful/webcompile/internal/hashname"
)

func TestStyleCompressed(t *testing.T) {
	res, err := NewStyle().Compile(context.Background(),
		[]byte("body {\n  color: #ff0000;\n}\n"), "src/a.css",
		Options{OutputFormat: "compressed", Precision: 5})
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(res.Output))
	assert.Nil(t, res.SourceMap)
}

func TestStyleExpandedPassThrough(t *testing.T) {
	in := []byte("body {\n  color: red;\n}\n")
	res, err := NewStyle().Compile(context.Background(), in, "src/a.css",
		Options{OutputFormat: "expanded"})
	require.NoError(t, err)
	assert.Equal(t, in, res.Output)
}

func TestStyleSourceMap(t *testing.T) {
	res, err := NewStyle().Compile(context.Background(), []byte("body{}"), "src/a.css",
		Options{OutputFormat: "expanded", SourceMap: true})
	require.NoError(t, err)
	assert.Contains(t, string(res.SourceMap), `"version":3`)
	assert.Contains(t, string(res.SourceMap), "src/a.css")
}

func TestScriptMinify(t *testing.T) {
	res, err := NewScript().Compile(context.Background(),
		[]byte("var  answer  =  42 ;\n"), "src/app.js", Options{})
	require.NoError(t, err)
	assert.Equal(t, "var answer=42\n", string(res.Output))
}

func TestScriptKeepsLicenseBanner(t *testing.T) {
	src := []byte("/*! license MIT */\nvar a = 1;\n")

	res, err := NewScript().Compile(context.Background(), src, "src/app.js",
		Options{KeepComments: true})
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), "/*! license MIT */")

	res, err = NewScript().Compile(context.Background(), src, "src/app.js", Options{})
	require.NoError(t, err)
	assert.Equal(t, "var a=1\n", string(res.Output))
}

func TestScriptStripsBannerAnywhere(t *testing.T) {
	src := []byte("var a = 1;\n/*! included lib */\nvar b = 2;\n")

	res, err := NewScript().Compile(context.Background(), src, "src/app.js", Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(res.Output), "included lib")

	res, err = NewScript().Compile(context.Background(), src, "src/app.js",
		Options{KeepComments: true})
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), "/*! included lib */")
}

func TestScriptTrailingNewline(t *testing.T) {
	res, err := NewScript().Compile(context.Background(), []byte("var a=1;"), "a.js", Options{})
	require.NoError(t, err)
	out := string(res.Output)
	require.NotEmpty(t, out)
	assert.Equal(t, uint8('\n'), out[len(out)-1])
	assert.NotContains(t, out[:len(out)-1], "\n")
}

func TestTemplateVariables(t *testing.T) {
	res, err := NewTemplate().Compile(context.Background(),
		[]byte("<title>{{ .title }}</title>"), "src/index.j2",
		Options{Vars: map[string]any{"title": "Example"}})
	require.NoError(t, err)
	assert.Equal(t, "<title>Example</title>\n", string(res.Output))
}

func TestTemplateCompiledName(t *testing.T) {
	lookup := func(src string) (string, error) {
		if src == "src/a.scss" {
			return "dist/a.0123456789ab.css", nil
		}
		return "", wcErrors.DanglingReference(src)
	}

	res, err := NewTemplate().Compile(context.Background(),
		[]byte(`<link href="{{ compiledName "src/a.scss" }}">`), "src/index.j2",
		Options{Lookup: lookup})
	require.NoError(t, err)
	assert.Equal(t, "<link href=\"a.0123456789ab.css\">\n", string(res.Output))
}

func TestTemplateDanglingReference(t *testing.T) {
	lookup := func(src string) (string, error) {
		return "", wcErrors.DanglingReference(src)
	}

	_, err := NewTemplate().Compile(context.Background(),
		[]byte(`{{ compiledName "src/missing.scss" }}`), "src/index.j2",
		Options{Lookup: lookup})
	require.Error(t, err)

	var wce *wcErrors.WebCompileError
	require.True(t, stdErrors.As(err, &wce))
	assert.Equal(t, wcErrors.CategoryReference, wce.Category)
}

func TestTemplateHash(t *testing.T) {
	root := t.TempDir()
	srcPath := filepath.Join(root, "src", "a.scss")
	require.NoError(t, os.MkdirAll(filepath.Dir(srcPath), 0o755))
	content := []byte("body{}")
	require.NoError(t, os.WriteFile(srcPath, content, 0o644))

	lookup := func(string) (string, error) { return "dist/a.css", nil }

	res, err := NewTemplate().Compile(context.Background(),
		[]byte(`{{ hash "src/a.scss" }}`), "src/index.j2",
		Options{Root: root, Lookup: lookup})
	require.NoError(t, err)
	assert.Equal(t, hashname.Hash(content)+"\n", string(res.Output))
}

func TestTemplateParseError(t *testing.T) {
	_, err := NewTemplate().Compile(context.Background(),
		[]byte("{{ unclosed"), "src/bad.j2", Options{})
	require.Error(t, err)

	var ce *CompileError
	require.True(t, stdErrors.As(err, &ce))
	assert.Equal(t, "src/bad.j2", ce.Path)
}

func TestCompileErrorFormatting(t *testing.T) {
	withPos := &CompileError{Path: "a.scss", Line: 3, Column: 7, Message: "invalid property"}
	assert.Equal(t, "a.scss:3:7: invalid property", withPos.Error())

	noPos := &CompileError{Path: "a.scss", Message: "invalid property"}
	assert.Equal(t, "a.scss: invalid property", noPos.Error())
}
