package workspace

import (
	"sort"

	"github.com/dusk-indust/storeresolve/internal/extract"
	"github.com/dusk-indust/storeresolve/internal/store"
)

// assembler turns per-file extraction results into store trees, following
// module references across files.
type assembler struct {
	files    map[string]*extract.FileResult
	imports  *importResolver
	warnf    func(format string, args ...any)
	visiting map[*extract.ModuleDecl]bool
	touched  map[string]bool
}

func assemble(files map[string]*extract.FileResult, aliases map[string]string, warnf func(string, ...any)) []*store.Tree {
	paths := sortedPaths(files)
	a := &assembler{
		files:   files,
		imports: newImportResolver(paths, aliases),
		warnf:   warnf,
	}

	var trees []*store.Tree
	for _, p := range paths {
		for _, decl := range files[p].Stores {
			a.visiting = make(map[*extract.ModuleDecl]bool)
			a.touched = make(map[string]bool)

			root := store.NewContainer("", decl.Source)
			a.fill(root, p, decl)
			trees = append(trees, &store.Tree{Root: root, Files: sortedKeys(a.touched)})
		}
	}
	return trees
}

func (a *assembler) fill(c *store.Container, file string, decl *extract.ModuleDecl) {
	if a.visiting[decl] {
		a.warnf("WARNING: module cycle at %q in %s", c.Name, file)
		return
	}
	a.visiting[decl] = true
	defer delete(a.visiting, decl)

	a.touched[file] = true
	c.File = file
	c.Namespaced = decl.Namespaced
	for _, s := range decl.State {
		c.AddState(s.Name, s.Source, s.Type)
	}

	for _, ref := range decl.Modules {
		modDecl, modFile := a.resolveRef(file, ref)
		if modDecl == nil {
			a.warnf("WARNING: unresolved module %q (%s) in %s", ref.Key, ref.Ident, file)
			continue
		}
		a.fill(c.AddModule(ref.Key, ref.Source), modFile, modDecl)
	}
}

// resolveRef finds the declaration a module reference points to and the file
// it lives in.
func (a *assembler) resolveRef(file string, ref extract.ModuleRef) (*extract.ModuleDecl, string) {
	if ref.Inline != nil {
		return ref.Inline, file
	}

	fr := a.files[file]
	imp, ok := fr.Imports[ref.Ident]
	if !ok {
		return nil, ""
	}
	target, ok := a.imports.resolve(imp.Specifier, file)
	if !ok {
		return nil, ""
	}
	tr, ok := a.files[target]
	if !ok {
		return nil, ""
	}
	if imp.Name == "default" {
		return tr.DefaultExport, target
	}
	if !tr.Exported[imp.Name] {
		return nil, ""
	}
	return tr.Locals[imp.Name], target
}

func sortedPaths(files map[string]*extract.FileResult) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
