package workspace

import (
	"path"
	"sort"
	"strings"
)

// importResolver rewrites import specifiers into repo-relative file paths
// that match parsed file keys. It never touches the filesystem.
type importResolver struct {
	fileSet map[string]bool
	aliases []alias
}

type alias struct {
	prefix string
	target string
}

var moduleExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".vue",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
}

// newImportResolver builds a resolver over the known repo-relative paths.
// Aliases map a specifier prefix such as "@/" to a repo-relative directory
// such as "src/". Longer prefixes take precedence.
func newImportResolver(knownFiles []string, aliases map[string]string) *importResolver {
	r := &importResolver{fileSet: make(map[string]bool, len(knownFiles))}
	for _, f := range knownFiles {
		r.fileSet[f] = true
	}
	for prefix, target := range aliases {
		r.aliases = append(r.aliases, alias{prefix: prefix, target: target})
	}
	sort.Slice(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
	})
	return r
}

// resolve maps specifier, imported from sourceFile, to a known file.
// Package imports without an alias are external and never resolve.
func (r *importResolver) resolve(specifier, sourceFile string) (string, bool) {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		base := path.Clean(path.Join(path.Dir(sourceFile), specifier))
		return r.probe(base)
	}
	for _, a := range r.aliases {
		if strings.HasPrefix(specifier, a.prefix) {
			base := path.Clean(path.Join(a.target, strings.TrimPrefix(specifier, a.prefix)))
			return r.probe(base)
		}
	}
	return "", false
}

// probe checks basePath, then basePath with each module extension appended.
func (r *importResolver) probe(basePath string) (string, bool) {
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range moduleExtensions {
		if candidate := basePath + ext; r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}
