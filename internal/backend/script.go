package backend

import (
	"bytes"
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

// Script minifies JavaScript sources.
type Script struct{}

// NewScript returns the reference script backend.
func NewScript() *Script { return &Script{} }

func (s *Script) Compile(_ context.Context, source []byte, sourcePath string, opts Options) (*Result, error) {
	m := minify.New()
	m.Add("application/javascript", &js.Minifier{})
	minified, err := m.Bytes("application/javascript", source)
	if err != nil {
		return nil, &CompileError{Path: sourcePath, Message: err.Error()}
	}

	out := minified
	if !opts.KeepComments {
		out = stripLicenseComments(out)
	}
	// trailing newline keeps end-of-file-fixer hooks quiet
	out = append(bytes.TrimRight(out, "\r\n "), '\n')
	return &Result{Output: out}, nil
}

// stripLicenseComments removes comments starting with '/*!', which the
// minifier passes through untouched.
func stripLicenseComments(b []byte) []byte {
	for {
		start := bytes.Index(b, []byte("/*!"))
		if start < 0 {
			return b
		}
		end := bytes.Index(b[start:], []byte("*/"))
		if end < 0 {
			return b[:start]
		}
		b = append(b[:start], b[start+end+2:]...)
	}
}
