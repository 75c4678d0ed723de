package manifest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

type span struct {
	start, end int
	token      string
}

// Rewrite replaces every delimited occurrence of each reference in table with
// its token. The reference is matched literally: it is escaped before the
// match pattern is built. An occurrence is delimited when the bytes around
// it cannot be part of a path, so "tex.png" is not rewritten inside
// "old_tex.png" or "dir/tex.png". All other bytes are left as they are.
func Rewrite(text string, table *Table) string {
	if table.Len() == 0 || text == "" {
		return text
	}

	var spans []span
	for _, e := range table.entries {
		if e.Reference == "" {
			continue
		}
		re := regexp.MustCompile(regexp.QuoteMeta(e.Reference))
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if delimited(text, loc[0], loc[1]) {
				spans = append(spans, span{start: loc[0], end: loc[1], token: string(e.Token)})
			}
		}
	}
	if len(spans) == 0 {
		return text
	}

	// Left to right; on equal starts the longer reference wins.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			continue
		}
		b.WriteString(text[pos:s.start])
		b.WriteString(s.token)
		pos = s.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// RewriteJSON rewrites a JSON manifest. It applies Rewrite, then replaces
// each escaped string value, such as "tex\/a.png", whose decoded form is a
// reference in table. Object keys are never replaced.
func RewriteJSON(doc string, table *Table) string {
	text := Rewrite(doc, table)
	if table.Len() == 0 || !strings.Contains(text, `\`) {
		return text
	}

	refs := table.Map()
	var b strings.Builder
	pos := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '"' {
			continue
		}
		end, escaped := scanString(text, i)
		if end < 0 {
			break
		}
		if escaped && !isKey(text, end+1) {
			var value string
			if err := json.Unmarshal([]byte(text[i:end+1]), &value); err == nil {
				if tok, ok := refs[value]; ok {
					b.WriteString(text[pos : i+1])
					b.WriteString(string(tok))
					pos = end
				}
			}
		}
		i = end
	}
	if pos == 0 {
		return text
	}
	b.WriteString(text[pos:])
	return b.String()
}

// scanString returns the index of the quote closing the string literal that
// opens at start, or -1 when it is unterminated.
func scanString(text string, start int) (end int, escaped bool) {
	for j := start + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			escaped = true
			j++
		case '"':
			return j, escaped
		}
	}
	return -1, escaped
}

func isKey(text string, i int) bool {
	for ; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case ':':
			return true
		}
		return false
	}
	return false
}

func delimited(text string, start, end int) bool {
	if start > 0 && isPathByte(text[start-1]) {
		return false
	}
	if end < len(text) && isPathByte(text[end]) {
		return false
	}
	return true
}

func isPathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return true
	}
	switch c {
	case '.', '_', '-', '/', '\\', '%', '~':
		return true
	}
	return false
}
