package backend

import (
	"context"
	"encoding/json"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

// Style is the reference style-sheet backend. It formats plain CSS; SCSS
// language semantics belong to an injected external compiler. The
// "compressed" output format minifies, every other format passes the input
// through unchanged.
type Style struct{}

// NewStyle returns the reference style backend.
func NewStyle() *Style { return &Style{} }

func (s *Style) Compile(_ context.Context, source []byte, sourcePath string, opts Options) (*Result, error) {
	out := source
	if opts.OutputFormat == "compressed" {
		m := minify.New()
		m.Add("text/css", &css.Minifier{Precision: opts.Precision})
		minified, err := m.Bytes("text/css", source)
		if err != nil {
			return nil, &CompileError{Path: sourcePath, Message: err.Error()}
		}
		out = minified
	}

	res := &Result{Output: out}
	if opts.SourceMap {
		m, err := sourceMapFor(sourcePath, source)
		if err != nil {
			return nil, &CompileError{Path: sourcePath, Message: err.Error()}
		}
		res.SourceMap = m
	}
	return res, nil
}

// sourceMapFor emits a minimal v3 source map for a single-source compile.
func sourceMapFor(sourcePath string, source []byte) ([]byte, error) {
	return json.Marshal(map[string]any{
		"version":        3,
		"file":           sourcePath,
		"sources":        []string{sourcePath},
		"sourcesContent": []string{string(source)},
		"mappings":       "",
	})
}
