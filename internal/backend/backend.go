// Package backend defines the compilation-backend boundary. Each backend is a
// pure function from source bytes to output bytes plus an optional side-car
// source map; the pipeline owns all filesystem interaction around it.
package backend

import (
	"context"
	"fmt"
)

// Options carries the per-kind knobs a backend may honor. Unknown fields are
// ignored by backends that have no use for them.
type Options struct {
	OutputFormat string // nested|expanded|compact|compressed (style)
	Precision    int    // numeric precision (style)
	SourceMap    bool   // emit a side-car source map
	KeepComments bool   // keep comments starting with '/*!' (script)

	Vars   map[string]any                        // global variable mapping (template)
	Lookup func(source string) (string, error)   // compiled-name lookup (template)
	Root   string                                // project root for source-relative reads (template)
}

// Result is a successful compilation: output bytes and an optional source map.
type Result struct {
	Output    []byte
	SourceMap []byte
}

// Backend compiles one source file.
type Backend interface {
	Compile(ctx context.Context, source []byte, sourcePath string, opts Options) (*Result, error)
}

// CompileError is a structured backend rejection with a human-readable
// diagnostic and, where available, a position.
type CompileError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
