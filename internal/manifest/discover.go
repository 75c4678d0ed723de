package manifest

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type gltfRefs struct {
	Buffers []struct {
		URI string `json:"uri"`
	} `json:"buffers"`
	Images []struct {
		URI string `json:"uri"`
	} `json:"images"`
}

// GLTFReferences returns every buffers[].uri and images[].uri in doc that
// points at another file, in document order with duplicates removed.
// Inline data URIs and empty URIs are skipped.
func GLTFReferences(doc []byte) ([]Reference, error) {
	var refs gltfRefs
	if err := json.Unmarshal(doc, &refs); err != nil {
		return nil, err
	}

	out := make([]Reference, 0, len(refs.Buffers)+len(refs.Images))
	seen := make(map[string]struct{})
	add := func(uri string, rule Rule) {
		if uri == "" || IsDataURI(uri) {
			return
		}
		if _, ok := seen[uri]; ok {
			return
		}
		seen[uri] = struct{}{}
		out = append(out, Reference{Value: uri, Rule: rule})
	}
	for _, b := range refs.Buffers {
		add(b.URI, RuleBufferURI)
	}
	for _, img := range refs.Images {
		add(img.URI, RuleImageURI)
	}
	return out, nil
}

// IsDataURI reports whether uri carries its payload inline.
func IsDataURI(uri string) bool {
	return len(uri) >= 5 && strings.EqualFold(uri[:5], "data:")
}

// MaterialLibraries returns the reference candidates of the first mtllib
// directive in an OBJ document: the whole remainder of the line, then its
// first field when the line lists several libraries. ok is false when there
// is no directive.
func MaterialLibraries(obj string) (candidates []string, ok bool) {
	for _, line := range lines(obj) {
		fields := splitFields(line)
		if len(fields) < 2 || fields[0].text != "mtllib" {
			continue
		}
		rest := strings.TrimSpace(line[fields[1].start:])
		candidates = append(candidates, rest)
		if first := fields[1].text; first != rest {
			candidates = append(candidates, first)
		}
		return candidates, true
	}
	return nil, false
}

var textureDirectives = map[string]struct{}{
	"map_ka":   {},
	"map_kd":   {},
	"map_ks":   {},
	"map_ke":   {},
	"map_ns":   {},
	"map_d":    {},
	"map_tr":   {},
	"map_bump": {},
	"bump":     {},
	"disp":     {},
	"decal":    {},
	"refl":     {},
	"norm":     {},
	"map_pr":   {},
	"map_pm":   {},
	"map_ps":   {},
	"map_rma":  {},
	"map_orm":  {},
}

// optionArity gives the minimum and maximum argument count of MTL texture
// options.
var optionArity = map[string][2]int{
	"-blendu":  {1, 1},
	"-blendv":  {1, 1},
	"-boost":   {1, 1},
	"-cc":      {1, 1},
	"-clamp":   {1, 1},
	"-imfchan": {1, 1},
	"-texres":  {1, 1},
	"-type":    {1, 1},
	"-bm":      {1, 1},
	"-mm":      {2, 2},
	"-o":       {1, 3},
	"-s":       {1, 3},
	"-t":       {1, 3},
}

// MTLTextures returns the texture paths named by texture-map directives in
// an MTL document, in order with duplicates removed. Directive keywords are
// matched case-insensitively, options such as "-s 1 1 1" are skipped and the
// path is the rest of the line.
func MTLTextures(mtl string) []Reference {
	var out []Reference
	seen := make(map[string]struct{})
	for _, line := range lines(mtl) {
		fields := splitFields(line)
		if len(fields) < 2 {
			continue
		}
		if _, ok := textureDirectives[strings.ToLower(fields[0].text)]; !ok {
			continue
		}

		i := 1
		for i < len(fields)-1 && isOption(fields[i].text) {
			arity, known := optionArity[strings.ToLower(fields[i].text)]
			if !known {
				arity = [2]int{0, 1}
			}
			i++
			for n := 0; n < arity[1] && i < len(fields)-1; n++ {
				if n >= arity[0] && !isNumber(fields[i].text) {
					break
				}
				i++
			}
		}

		path := strings.TrimSpace(line[fields[i].start:])
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, Reference{Value: path, Rule: RuleTextureMap})
	}
	return out
}

type field struct {
	text  string
	start int
}

func splitFields(line string) []field {
	var out []field
	start := -1
	for i := 0; i < len(line); i++ {
		space := line[i] == ' ' || line[i] == '\t'
		switch {
		case space && start >= 0:
			out = append(out, field{text: line[start:i], start: start})
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	if start >= 0 {
		out = append(out, field{text: line[start:], start: start})
	}
	return out
}

// lines splits text into lines without terminators, dropping comment lines.
func lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := raw[:0]
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if t := strings.TrimSpace(l); t == "" || t[0] == '#' {
			continue
		}
		out = append(out, l)
	}
	return out
}

func isOption(s string) bool {
	return len(s) > 1 && s[0] == '-' && !isNumber(s)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
