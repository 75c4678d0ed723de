// Package manifest discovers side-file references in model manifests,
// resolves them against a container and rewrites them to handle tokens.
package manifest

import (
	"fmt"

	"github.com/samcharles93/assetpipe/internal/handle"
)

// Rule names the manifest construct a reference came from.
type Rule uint8

const (
	RuleBufferURI Rule = iota + 1
	RuleImageURI
	RuleMaterialLibrary
	RuleTextureMap
)

func (r Rule) String() string {
	switch r {
	case RuleBufferURI:
		return "buffer-uri"
	case RuleImageURI:
		return "image-uri"
	case RuleMaterialLibrary:
		return "mtllib"
	case RuleTextureMap:
		return "texture-map"
	default:
		return fmt.Sprintf("Rule(%d)", uint8(r))
	}
}

// Reference is a relative path found in a manifest.
type Reference struct {
	Value string
	Rule  Rule
}

// Entry is one resolved reference.
type Entry struct {
	// Reference is the string exactly as it appears in the manifest.
	Reference string
	Rule      Rule
	// Source is the container path of the manifest that holds the reference.
	Source string
	// Path is the container entry the reference resolved to.
	Path  string
	Token handle.Token
	Size  int
}

// Table maps original reference strings to handle tokens, in the order they
// were resolved. The zero value is empty and ready to use.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add records e. A reference already present from the same source is kept
// and e is dropped; it reports whether e was added.
func (t *Table) Add(e Entry) bool {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	key := e.Source + "\x00" + e.Reference
	if _, ok := t.index[key]; ok {
		return false
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, e)
	return true
}

// Lookup returns the token for the first entry whose reference is ref.
func (t *Table) Lookup(ref string) (handle.Token, bool) {
	if t == nil {
		return "", false
	}
	for _, e := range t.entries {
		if e.Reference == ref {
			return e.Token, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in resolution order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// From returns the entries that were found in the manifest at source.
func (t *Table) From(source string) *Table {
	out := NewTable()
	if t == nil {
		return out
	}
	for _, e := range t.entries {
		if e.Source == source {
			out.Add(e)
		}
	}
	return out
}

// Merge appends the entries of other that t does not already hold.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		t.Add(e)
	}
}

// Map returns reference → token for every entry. When the same reference
// string appears in several manifests, the first one wins.
func (t *Table) Map() map[string]handle.Token {
	out := make(map[string]handle.Token, t.Len())
	if t == nil {
		return out
	}
	for _, e := range t.entries {
		if _, ok := out[e.Reference]; !ok {
			out[e.Reference] = e.Token
		}
	}
	return out
}
