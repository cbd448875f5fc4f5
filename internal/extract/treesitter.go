package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TreeSitterParser implements Parser with the tree-sitter TypeScript and TSX
// grammars. JavaScript is parsed with the TypeScript grammar. A new
// tree-sitter parser is created per Parse call, so one TreeSitterParser may
// be shared by concurrent callers.
type TreeSitterParser struct {
	grammars map[Language]*tree_sitter.Language
}

var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with both grammars loaded.
func NewTreeSitterParser() *TreeSitterParser {
	ts := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsx := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	return &TreeSitterParser{
		grammars: map[Language]*tree_sitter.Language{
			LangTypeScript: ts,
			LangJavaScript: ts,
			LangTSX:        tsx,
		},
	}
}

// Parse extracts store declarations and references from one file.
func (p *TreeSitterParser) Parse(ctx context.Context, path string, source []byte) (*FileResult, error) {
	lang, ok := ExtToLanguage[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	res := newFileResult(path, lang, source)

	if lang != LangVue {
		if err := p.parseBlock(ctx, res, source, lang, locator{file: path}); err != nil {
			return nil, err
		}
		return res, nil
	}

	for _, block := range scriptBlocks(source) {
		if err := p.parseBlock(ctx, res, block.content, block.lang, block.locator(path)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *TreeSitterParser) parseBlock(_ context.Context, res *FileResult, source []byte, lang Language, loc locator) error {
	grammar, ok := p.grammars[lang]
	if !ok {
		return fmt.Errorf("no grammar for language: %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(grammar); err != nil {
		return fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("tree-sitter returned nil tree for %s", res.Path)
	}
	defer tree.Close()

	x := newExtraction(source, loc, res)
	x.run(tree.RootNode())
	return nil
}

// SupportedExtensions returns the handled extensions in sorted order.
func (p *TreeSitterParser) SupportedExtensions() []string {
	exts := make([]string, 0, len(ExtToLanguage))
	for ext := range ExtToLanguage {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

func newFileResult(path string, lang Language, source []byte) *FileResult {
	return &FileResult{
		Path:     path,
		Language: lang,
		LOC:      countLOC(source),
		Locals:   make(map[string]*ModuleDecl),
		Exported: make(map[string]bool),
		Imports:  make(map[string]ImportRef),
	}
}

// countLOC counts the number of lines in source by counting newline bytes
// and adding one for the final line if the source is non-empty.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}
