package store

import (
	"cmp"
	"fmt"
	"slices"
)

// Range is a span of source text. Lines and columns are 1-based, byte
// offsets are 0-based and end-exclusive.
type Range struct {
	StartByte   int `json:"startByte"`
	EndByte     int `json:"endByte"`
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// Contains reports whether the 1-based line/column position falls inside r.
func (r Range) Contains(line, col int) bool {
	if line < r.StartLine || line > r.EndLine {
		return false
	}
	if line == r.StartLine && col < r.StartColumn {
		return false
	}
	if line == r.EndLine && col >= r.EndColumn {
		return false
	}
	return true
}

// Location anchors a symbol in a repo-relative file. Locations are values:
// two locations are the same anchor iff they compare equal.
type Location struct {
	File string `json:"file"`
	Range
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartColumn)
}

// Compare orders locations by file, then start offset, then end offset.
func Compare(a, b Location) int {
	if c := cmp.Compare(a.File, b.File); c != 0 {
		return c
	}
	if c := cmp.Compare(a.StartByte, b.StartByte); c != 0 {
		return c
	}
	return cmp.Compare(a.EndByte, b.EndByte)
}

// SortedSet returns the members of set in location order.
func SortedSet(set map[Location]struct{}) []Location {
	out := make([]Location, 0, len(set))
	for loc := range set {
		out = append(out, loc)
	}
	slices.SortFunc(out, Compare)
	return out
}
