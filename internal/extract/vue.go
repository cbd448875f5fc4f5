package extract

import (
	"bytes"
	"regexp"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/storeresolve/internal/store"
)

// locator converts tree-sitter positions into store locations. The offsets
// shift positions of an embedded block (a .vue <script>) back into the
// enclosing file.
type locator struct {
	file       string
	byteOffset int
	lineOffset int
	colOffset  int // applies to the block's first line only
}

func (l locator) at(n *tree_sitter.Node) store.Location {
	sp, ep := n.StartPosition(), n.EndPosition()
	return store.Location{
		File: l.file,
		Range: store.Range{
			StartByte:   int(n.StartByte()) + l.byteOffset,
			EndByte:     int(n.EndByte()) + l.byteOffset,
			StartLine:   int(sp.Row) + 1 + l.lineOffset,
			StartColumn: l.column(sp.Row, sp.Column),
			EndLine:     int(ep.Row) + 1 + l.lineOffset,
			EndColumn:   l.column(ep.Row, ep.Column),
		},
	}
}

func (l locator) column(row, col uint) int {
	c := int(col) + 1
	if row == 0 {
		c += l.colOffset
	}
	return c
}

// scriptBlock is the content of one <script> element of a single-file
// component.
type scriptBlock struct {
	content []byte
	lang    Language
	start   int // byte offset of content in the .vue file
	line    int // 0-based line of start
	col     int // 0-based column of start
}

func (b scriptBlock) locator(file string) locator {
	return locator{file: file, byteOffset: b.start, lineOffset: b.line, colOffset: b.col}
}

var (
	scriptOpenRe = regexp.MustCompile(`(?i)<script\b([^>]*)>`)
	scriptLangRe = regexp.MustCompile(`(?i)\blang\s*=\s*["']?(\w+)`)
	scriptClose  = []byte("</script>")
)

// scriptBlocks returns every <script> block of a .vue file in order.
func scriptBlocks(src []byte) []scriptBlock {
	var blocks []scriptBlock
	offset := 0
	for {
		m := scriptOpenRe.FindSubmatchIndex(src[offset:])
		if m == nil {
			return blocks
		}
		start := offset + m[1]
		end := bytes.Index(src[start:], scriptClose)
		if end < 0 {
			return blocks
		}

		lang := LangTypeScript
		if lm := scriptLangRe.FindSubmatch(src[offset+m[2] : offset+m[3]]); lm != nil {
			switch string(bytes.ToLower(lm[1])) {
			case "tsx", "jsx":
				lang = LangTSX
			}
		}

		line := bytes.Count(src[:start], []byte{'\n'})
		col := start
		if nl := bytes.LastIndexByte(src[:start], '\n'); nl >= 0 {
			col = start - nl - 1
		}

		blocks = append(blocks, scriptBlock{
			content: src[start : start+end],
			lang:    lang,
			start:   start,
			line:    line,
			col:     col,
		})
		offset = start + end + len(scriptClose)
	}
}
