// Package registry maps original source paths to their final, possibly
// hashed, output paths for cross-referencing from the template stage.
package registry

import (
	"sync"

	"git.home.luguber.info/inful/webcompile/internal/errors"
)

// Registry is the per-run compiled-name table. It is constructed once per run
// and threaded through stage execution; never a process-wide singleton, so
// runs stay independently testable in parallel.
//
// Writes happen during the style and script stages (mutex-guarded for
// within-stage workers); the template stage only reads, strictly after both.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{names: make(map[string]string)}
}

// Register records the resolved output path for a source. Later registrations
// for the same source overwrite, which cannot happen in practice because the
// resolver deduplicates sources.
func (r *Registry) Register(source, resolved string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[source] = resolved
}

// Lookup returns the resolved output path for a source. A miss signals a
// dangling reference (wrong stage order, typo, or a source excluded by
// configuration) and is fatal to the referencing unit.
func (r *Registry) Lookup(source string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolved, ok := r.names[source]
	if !ok {
		return "", errors.DanglingReference(source)
	}
	return resolved, nil
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
