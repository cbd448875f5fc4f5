package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/storeresolve/internal/extract"
	"github.com/dusk-indust/storeresolve/internal/index"
	"github.com/dusk-indust/storeresolve/internal/resolve"
	"github.com/dusk-indust/storeresolve/internal/store"
)

// Options configures a Workspace.
type Options struct {
	// ExcludeDirs are directory names skipped while walking, in addition
	// to .git and node_modules.
	ExcludeDirs []string

	// Aliases map import prefixes to repo-relative directories.
	Aliases map[string]string

	// Parallelism bounds concurrent file parsing. Zero means GOMAXPROCS.
	Parallelism int

	// Verbose enables warnings about skipped files and unresolved modules.
	Verbose bool

	// Parser overrides the default tree-sitter parser.
	Parser extract.Parser

	// Index, when set, is repopulated after every change.
	Index index.Store
}

// Workspace is the set of parsed files of one project together with the
// store trees assembled from them. It is the store.Lookup and store.Counter
// that state elements resolve against.
type Workspace struct {
	root    string
	opts    Options
	parser  extract.Parser
	tracker store.Tracker

	mu       sync.RWMutex
	files    map[string]*extract.FileResult
	sizes    map[string]int
	trees    []*store.Tree
	elements *resolve.Table
	adhoc    *resolve.Table
	bindings []binding
}

// binding ties a source reference to its interned element.
type binding struct {
	ref  extract.Reference
	elem *resolve.StateElement
}

var _ store.Lookup = (*Workspace)(nil)

// New returns an empty workspace rooted at root.
func New(root string, opts Options) *Workspace {
	parser := opts.Parser
	if parser == nil {
		parser = extract.NewTreeSitterParser()
	}
	return &Workspace{
		root:     root,
		opts:     opts,
		parser:   parser,
		files:    make(map[string]*extract.FileResult),
		sizes:    make(map[string]int),
		elements: resolve.NewTable(),
		adhoc:    resolve.NewTable(),
	}
}

// Open walks root, parses every supported file and assembles the stores.
func Open(ctx context.Context, root string, opts Options) (*Workspace, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	w := New(root, opts)
	if err := w.load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) load(ctx context.Context) error {
	exclude := map[string]bool{".git": true, "node_modules": true}
	for _, d := range w.opts.ExcludeDirs {
		exclude[d] = true
	}

	var paths []string
	walkErr := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if d.IsDir() {
			if p != w.root && exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := extract.ExtToLanguage[strings.ToLower(filepath.Ext(p))]; ok {
			paths = append(paths, p)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk: %w", walkErr)
	}

	limit := w.opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(p)
			if err != nil {
				w.warnf("WARNING: skipping unreadable %s: %v", p, err)
				return nil
			}
			rel := w.rel(p)
			res, err := w.parser.Parse(gctx, rel, source)
			if err != nil {
				w.warnf("WARNING: skipping unparseable %s: %v", rel, err)
				return nil
			}
			mu.Lock()
			w.files[rel] = res
			w.sizes[rel] = len(source)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rebuild(ctx)
}

// Update re-parses one repo-relative file from source and advances the
// modification counter.
func (w *Workspace) Update(ctx context.Context, path string, source []byte) error {
	path = filepath.ToSlash(path)
	res, err := w.parser.Parse(ctx, path, source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = res
	w.sizes[path] = len(source)
	err = w.rebuild(ctx)
	w.tracker.Inc()
	return err
}

// Remove drops a file and advances the modification counter.
func (w *Workspace) Remove(ctx context.Context, path string) error {
	path = filepath.ToSlash(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return nil
	}
	delete(w.files, path)
	delete(w.sizes, path)
	err := w.rebuild(ctx)
	w.tracker.Inc()
	return err
}

// rebuild reassembles trees and elements. Callers hold w.mu.
func (w *Workspace) rebuild(ctx context.Context) error {
	w.trees = assemble(w.files, w.opts.Aliases, w.warnf)
	w.rebindElements()

	if w.opts.Index == nil {
		return nil
	}
	if err := index.Populate(ctx, w.opts.Index, w.trees); err != nil {
		return fmt.Errorf("populate index: %w", err)
	}
	return nil
}

// rebindElements creates one element per reference. Elements equal to ones
// from the previous generation are reused so their identity survives edits
// elsewhere in the project.
func (w *Workspace) rebindElements() {
	prev := w.elements
	next := resolve.NewTable()
	var bindings []binding

	for _, p := range sortedPaths(w.files) {
		for _, ref := range w.files[p].References {
			e := w.newElement(ref.Name, ref.QualifiedName, ref.Location)
			if existing := prev.Find(e); existing != nil {
				e = existing
			}
			bindings = append(bindings, binding{ref: ref, elem: next.Intern(e)})
		}
	}
	w.elements = next
	w.adhoc = resolve.NewTable()
	w.bindings = bindings
}

func (w *Workspace) newElement(name, qualifiedName string, provider store.Location) *resolve.StateElement {
	return resolve.New(name, qualifiedName, provider, nil, resolve.Env{Lookup: w, Counter: &w.tracker})
}

// ContextFor returns the store tree that loc's file contributes to, falling
// back to the first store of the project.
func (w *Workspace) ContextFor(loc store.Location) store.Context {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.trees) == 0 {
		return nil
	}
	for _, t := range w.trees {
		if t.HasFile(loc.File) {
			return t
		}
	}
	return w.trees[0]
}

// Contains reports whether loc lies within a file the workspace still has.
func (w *Workspace) Contains(loc store.Location) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	size, ok := w.sizes[loc.File]
	return ok && loc.StartByte >= 0 && loc.EndByte <= size
}

// Revision is the current modification counter value.
func (w *Workspace) Revision() int64 {
	return w.tracker.Value()
}

// Counter exposes the modification counter.
func (w *Workspace) Counter() store.Counter {
	return &w.tracker
}

// Trees returns the assembled store trees.
func (w *Workspace) Trees() []*store.Tree {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*store.Tree, len(w.trees))
	copy(out, w.trees)
	return out
}

// Root returns the directory the workspace was opened on.
func (w *Workspace) Root() string {
	return w.root
}

// Close releases parser resources.
func (w *Workspace) Close() error {
	return w.parser.Close()
}

func (w *Workspace) rel(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}

func (w *Workspace) warnf(format string, args ...any) {
	if w.opts.Verbose {
		log.Printf(format, args...)
	}
}
