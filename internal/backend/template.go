package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"git.home.luguber.info/inful/webcompile/internal/hashname"
)

// Template renders text templates with access to the compiled-name registry.
// Two functions are exposed: compiledName resolves a source path to its final
// output filename, hash digests a source file.
type Template struct{}

// NewTemplate returns the reference template backend.
func NewTemplate() *Template { return &Template{} }

func (t *Template) Compile(_ context.Context, source []byte, sourcePath string, opts Options) (*Result, error) {
	funcs := template.FuncMap{
		"compiledName": func(src string) (string, error) {
			if opts.Lookup == nil {
				return "", &CompileError{Path: sourcePath, Message: "no compiled-name lookup available"}
			}
			resolved, err := opts.Lookup(src)
			if err != nil {
				return "", err
			}
			return filepath.Base(resolved), nil
		},
		"hash": func(src string) (string, error) {
			// Only sources that were actually compiled may be hashed.
			if opts.Lookup != nil {
				if _, err := opts.Lookup(src); err != nil {
					return "", err
				}
			}
			content, err := os.ReadFile(filepath.Join(opts.Root, filepath.FromSlash(src)))
			if err != nil {
				return "", err
			}
			return hashname.Hash(content), nil
		},
	}

	tmpl, err := template.New(filepath.Base(sourcePath)).Funcs(funcs).Parse(string(source))
	if err != nil {
		return nil, &CompileError{Path: sourcePath, Message: err.Error()}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, opts.Vars); err != nil {
		return nil, err
	}

	out := append(bytes.TrimRight(buf.Bytes(), "\r\n "), '\n')
	return &Result{Output: out}, nil
}
