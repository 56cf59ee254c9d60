// Package resolve expands the normalized configuration into ordered
// compilation units. Resolution is pure given the on-disk directory listing:
// repeated runs over an unchanged tree yield an identical unit sequence.
package resolve

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/webcompile/internal/config"
	"git.home.luguber.info/inful/webcompile/internal/errors"
	"git.home.luguber.info/inful/webcompile/internal/hashname"
)

// PartialMarker prefixes source fragments that are never compiled standalone.
const PartialMarker = "_"

// Unit is one (source, output) compilation pair. Paths are slash-separated
// and relative to the project root. Immutable once created.
type Unit struct {
	Source         string
	OutputTemplate string
	Kind           Kind
}

// Plan holds the per-stage unit lists in execution order.
type Plan struct {
	Styles    []Unit
	Scripts   []Unit
	Templates []Unit
}

// Units returns all units in stage order.
func (p *Plan) Units() []Unit {
	out := make([]Unit, 0, len(p.Styles)+len(p.Scripts)+len(p.Templates))
	out = append(out, p.Styles...)
	out = append(out, p.Scripts...)
	return append(out, p.Templates...)
}

// Resolve expands the configuration into the per-stage unit lists.
// Unreadable directories and translate pairs matching no source root are
// configuration errors that abort resolution.
func Resolve(root string, cfg *config.Config) (*Plan, error) {
	styles, err := resolveKind(root, KindStyle, cfg.Sass.Files, cfg.Sass.TraversalOptions)
	if err != nil {
		return nil, err
	}
	scripts, err := resolveKind(root, KindScript, cfg.JS.Files, cfg.JS.TraversalOptions)
	if err != nil {
		return nil, err
	}
	templates, err := resolveKind(root, KindTemplate, cfg.Jinja.Files, config.TraversalOptions{})
	if err != nil {
		return nil, err
	}
	return &Plan{Styles: styles, Scripts: scripts, Templates: templates}, nil
}

type resolver struct {
	root  string
	kind  Kind
	opts  config.TraversalOptions
	pairs []config.TranslatePair
	used  []bool

	seen  map[string]struct{}
	units []Unit
}

func resolveKind(root string, kind Kind, files map[string]string, opts config.TraversalOptions) ([]Unit, error) {
	pairs, err := opts.TranslatePairs()
	if err != nil {
		return nil, err
	}
	// Shortest source root wins, matching first; ties keep declaration order.
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i].Src) < len(pairs[j].Src) })

	r := &resolver{
		root:  root,
		kind:  kind,
		opts:  opts,
		pairs: pairs,
		used:  make([]bool, len(pairs)),
		seen:  map[string]struct{}{},
	}

	// Explicit file mapping first, in sorted order for determinism.
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.add(path.Clean(filepath.ToSlash(k)), path.Clean(filepath.ToSlash(files[k])))
	}

	for _, p := range opts.Paths {
		if err := r.expandPath(path.Clean(filepath.ToSlash(p))); err != nil {
			return nil, err
		}
	}

	for i, pair := range pairs {
		if !r.used[i] {
			return nil, errors.UnmatchedTranslateRoot(pair.Src + ":" + pair.Dst)
		}
	}
	return r.units, nil
}

// add records a unit, deduplicating on source and keeping the first occurrence.
func (r *resolver) add(source, outputTemplate string) {
	if _, ok := r.seen[source]; ok {
		return
	}
	r.seen[source] = struct{}{}
	r.units = append(r.units, Unit{Source: source, OutputTemplate: outputTemplate, Kind: r.kind})
}

func (r *resolver) expandPath(rel string) error {
	abs := filepath.Join(r.root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		// A missing explicit input is a per-unit failure at read time,
		// not a resolution failure.
		r.add(rel, r.outputFor(rel))
		return nil
	}
	if info.IsDir() {
		return r.expandDir(rel, abs)
	}
	if strings.HasPrefix(path.Base(rel), PartialMarker) {
		return r.expandPartial(rel)
	}
	r.add(rel, r.outputFor(rel))
	return nil
}

func (r *resolver) expandDir(rel, abs string) error {
	if r.opts.RecurseEnabled() {
		err := filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			r.addDiscovered(relTo(r.root, p))
			return nil
		})
		if err != nil {
			return errors.UnreadableDirectory(rel, err)
		}
		return nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return errors.UnreadableDirectory(rel, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		r.addDiscovered(path.Join(rel, e.Name()))
	}
	return nil
}

func (r *resolver) addDiscovered(rel string) {
	name := path.Base(rel)
	if strings.HasPrefix(name, PartialMarker) {
		return
	}
	if !strings.HasSuffix(name, r.kind.SourceExt()) {
		return
	}
	r.add(rel, r.outputFor(rel))
}

// expandPartial approximates "a partial changed, recompile everything that
// might import it" by directory proximity: every non-partial sibling in the
// partial's own directory and its partial_depth nearest ancestors becomes a
// unit. Known false negative: imports from outside that window are missed.
func (r *resolver) expandPartial(rel string) error {
	dir := path.Dir(rel)
	for level := 0; level <= r.opts.PartialDepth; level++ {
		abs := filepath.Join(r.root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(abs)
		if err != nil {
			return errors.UnreadableDirectory(dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			r.addDiscovered(path.Join(dir, e.Name()))
		}
		if dir == "." || dir == "/" {
			// Never walk above the project root.
			break
		}
		dir = path.Dir(dir)
	}
	return nil
}

// outputFor derives the natural output template for a discovered source:
// the source directory (translated when a pair's root matches), the source
// stem, a hash token when hashing is on, and the kind's output extension.
func (r *resolver) outputFor(rel string) string {
	dir := path.Dir(rel)
	for i, pair := range r.pairs {
		src := path.Clean(filepath.ToSlash(pair.Src))
		if dir == src || strings.HasPrefix(dir, src+"/") {
			dir = path.Clean(filepath.ToSlash(pair.Dst)) + strings.TrimPrefix(dir, src)
			r.used[i] = true
			break
		}
	}
	stem := strings.TrimSuffix(path.Base(rel), r.kind.SourceExt())
	name := stem + r.kind.OutputExt()
	if r.opts.Hash {
		name = stem + "." + hashname.Token + r.kind.OutputExt()
	}
	return path.Join(dir, name)
}

func relTo(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
