package store

import "strings"

// Separator joins the segments of a qualified store name.
const Separator = "/"

// AppendSegment joins a namespace and a segment. An empty namespace is the
// root store, so AppendSegment("", "x") is "x" and AppendSegment("a", "") is
// "a/", the segment-aligned prefix of everything nested under "a".
func AppendSegment(ns, segment string) string {
	if ns == "" {
		return segment
	}
	return ns + Separator + segment
}

// Segments splits a qualified name into its segments.
func Segments(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, Separator)
}

// ValidName reports whether name is non-empty and has no empty segments.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, seg := range Segments(name) {
		if seg == "" {
			return false
		}
	}
	return true
}

// LastSegment returns the final segment of a qualified name.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[i+1:]
	}
	return name
}
