// Package refpath resolves manifest references against container paths.
// Resolution is purely lexical and never ascends above the container root.
package refpath

import (
	"net/url"
	"strings"
)

// Normalize splits p on "/", drops empty and "." segments and pops the last
// segment on "..". A ".." with nothing to pop is dropped.
func Normalize(p string) string {
	segs := strings.Split(p, "/")
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Resolve joins reference onto baseDir and normalizes the result.
// Backslash separators are treated as "/".
func Resolve(baseDir, reference string) string {
	reference = strings.ReplaceAll(reference, "\\", "/")
	return Normalize(baseDir + reference)
}

// BaseDir returns entryPath up to and including its last "/", or "" when it
// has none.
func BaseDir(entryPath string) string {
	i := strings.LastIndexByte(entryPath, '/')
	if i < 0 {
		return ""
	}
	return entryPath[:i+1]
}

// Candidates returns the container paths a reference may name, most literal
// first: the resolved reference as written, then its percent-decoded form
// when that differs.
func Candidates(baseDir, reference string) []string {
	out := []string{Resolve(baseDir, reference)}
	if !strings.Contains(reference, "%") {
		return out
	}
	decoded, err := url.PathUnescape(reference)
	if err != nil {
		return out
	}
	if alt := Resolve(baseDir, decoded); alt != out[0] {
		out = append(out, alt)
	}
	return out
}
