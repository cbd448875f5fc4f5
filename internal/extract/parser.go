package extract

import (
	"context"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// Language identifies how a source file is parsed.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangVue        Language = "vue"
)

// ExtToLanguage maps file extensions to the language used to parse them.
var ExtToLanguage = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".jsx": LangTSX,
	".vue": LangVue,
}

// FileResult holds the store declarations and state references found in a
// single file.
type FileResult struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	LOC      int      `json:"loc"`

	// Stores are the root options objects passed to a store constructor.
	Stores []*ModuleDecl `json:"stores,omitempty"`

	// Locals are top-level const objects that look like store modules,
	// keyed by binding name.
	Locals map[string]*ModuleDecl `json:"-"`

	// Exported lists which Locals are exported by name.
	Exported map[string]bool `json:"-"`

	// DefaultExport is the module object of "export default {...}", if any.
	DefaultExport *ModuleDecl `json:"-"`

	// Imports maps local binding names to where they were imported from.
	Imports map[string]ImportRef `json:"-"`

	References []Reference `json:"references,omitempty"`
}

// ModuleDecl is a store options object: the root store or a module.
type ModuleDecl struct {
	Source     store.Location `json:"source"`
	Namespaced bool           `json:"namespaced"`
	State      []StateDecl    `json:"state,omitempty"`
	Modules    []ModuleRef    `json:"modules,omitempty"`
}

// StateDecl is one top-level state property of a module.
type StateDecl struct {
	Name   string         `json:"name"`
	Source store.Location `json:"source"`
	Type   store.Type     `json:"-"`
}

// ModuleRef is one entry of a "modules" object. Exactly one of Inline and
// Ident is set: Inline when the module object was found in the same file,
// Ident when it names an imported binding.
type ModuleRef struct {
	Key    string         `json:"key"`
	Source store.Location `json:"source"`
	Inline *ModuleDecl    `json:"inline,omitempty"`
	Ident  string         `json:"ident,omitempty"`
}

// ImportRef records the origin of an imported binding. Name is "default" for
// default imports.
type ImportRef struct {
	Specifier string `json:"specifier"`
	Name      string `json:"name"`
}

// Reference is a use of a qualified state path in source, e.g. the "items"
// in this.$store.state.cart.items or in mapState('cart', ['items']).
type Reference struct {
	Name          string         `json:"name"`
	QualifiedName string         `json:"qualifiedName"`
	Location      store.Location `json:"location"`
}

// Parser extracts store structure from source files.
type Parser interface {
	// Parse extracts declarations and references from a single file. The
	// language is chosen from the path's extension.
	Parse(ctx context.Context, path string, source []byte) (*FileResult, error)

	// SupportedExtensions returns the file extensions the parser handles.
	SupportedExtensions() []string

	// Close releases parser resources.
	Close() error
}
