package decoder

import (
	"context"
	"strconv"
	"strings"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/scene"
)

// OBJ decodes Wavefront OBJ text. Objects ("o") become children of the
// root, groups ("g") children of the current object. When the material
// library was resolved and an Opener is set, its materials are listed too.
type OBJ struct {
	Opener Opener
}

func (d *OBJ) Decode(ctx context.Context, src Source) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := scene.NewNode(rootName(src.Name), scene.TypeScene)
	var (
		current  *scene.Node
		vertices int
		faces    int
		mtllib   string
	)
	for i, line := range strings.Split(string(src.Data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		keyword, rest := splitKeyword(line)
		switch keyword {
		case "v":
			fields := strings.Fields(rest)
			if len(fields) < 3 {
				return nil, malformed("obj line %d: vertex needs 3 coordinates", i+1)
			}
			for _, f := range fields[:3] {
				if _, err := strconv.ParseFloat(f, 64); err != nil {
					return nil, malformed("obj line %d: bad coordinate %q", i+1, f)
				}
			}
			vertices++
		case "f":
			if len(strings.Fields(rest)) < 3 {
				return nil, malformed("obj line %d: face needs 3 vertices", i+1)
			}
			if vertices == 0 {
				return nil, malformed("obj line %d: face before any vertex", i+1)
			}
			faces++
		case "o":
			current = scene.NewNode(nameOr(rest, "object"), scene.TypeObject)
			root.Add(current)
		case "g":
			parent := current
			if parent == nil {
				parent = root
			}
			parent.Add(scene.NewNode(nameOr(rest, "default"), scene.TypeGroup))
		case "mtllib":
			if mtllib == "" {
				mtllib = rest
			}
		}
	}
	if vertices == 0 {
		return nil, malformed("obj has no vertices")
	}

	root.SetAttr("vertices", strconv.Itoa(vertices))
	root.SetAttr("faces", strconv.Itoa(faces))
	if mtllib != "" {
		if err := d.addMaterials(root, src, mtllib); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (d *OBJ) addMaterials(root *scene.Node, src Source, ref string) error {
	tok, ok := libraryToken(tokenSet(src.Table), ref)
	if !ok {
		root.SetAttr("unresolved", "1")
		return nil
	}
	if d.Opener == nil {
		return nil
	}
	mtl, err := d.Opener.Open(tok)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(mtl), "\n") {
		if keyword, rest := splitKeyword(strings.TrimSpace(line)); keyword == "newmtl" {
			root.Add(scene.NewNode(nameOr(rest, "material"), scene.TypeMaterial))
		}
	}
	return nil
}

// libraryToken finds the token for an mtllib line: the whole remainder
// first, then each of its fields.
func libraryToken(tokens map[string]handle.Token, ref string) (handle.Token, bool) {
	if tok, ok := tokens[ref]; ok {
		return tok, true
	}
	for _, field := range strings.Fields(ref) {
		if tok, ok := tokens[field]; ok {
			return tok, true
		}
	}
	return "", false
}

func splitKeyword(line string) (keyword, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
