package storage

import (
	"regexp"
	"strings"
)

var (
	trailingQuotes = regexp.MustCompile(`['"]+$`)
	leadingSlashes = regexp.MustCompile(`^/+`)
	unsafeSegment  = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// NormalizePath cleans a storage-relative path before it is recorded or
// resolved. An empty result stands for "no path".
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = trailingQuotes.ReplaceAllString(p, "")
	p = strings.ReplaceAll(p, `\`, "/")
	return leadingSlashes.ReplaceAllString(p, "")
}

// segment turns an agent-supplied identifier into a single directory name.
func segment(id string) string {
	s := unsafeSegment.ReplaceAllString(id, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
