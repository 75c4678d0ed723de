package decoder

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/manifest"
	"github.com/samcharles93/assetpipe/internal/scene"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
	glbHeaderLen = 12
)

type gltfDocument struct {
	Asset struct {
		Version   string `json:"version"`
		Generator string `json:"generator"`
	} `json:"asset"`
	Scene  *int `json:"scene"`
	Scenes []struct {
		Name  string `json:"name"`
		Nodes []int  `json:"nodes"`
	} `json:"scenes"`
	Nodes []struct {
		Name     string `json:"name"`
		Children []int  `json:"children"`
		Mesh     *int   `json:"mesh"`
	} `json:"nodes"`
	Meshes []struct {
		Name string `json:"name"`
	} `json:"meshes"`
	Buffers []struct {
		URI        string `json:"uri"`
		ByteLength int    `json:"byteLength"`
	} `json:"buffers"`
	Images []struct {
		URI string `json:"uri"`
	} `json:"images"`
}

// GLTF decodes glTF 2.0 JSON documents.
type GLTF struct {
	// Opener, when set, is used to check that buffers resolved to a handle
	// are at least byteLength long.
	Opener Opener
}

func (d *GLTF) Decode(ctx context.Context, src Source) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.decode(src, src.Data, nil)
}

func (d *GLTF) decode(src Source, doc, bin []byte) (*scene.Node, error) {
	var gd gltfDocument
	if err := json.Unmarshal(doc, &gd); err != nil {
		return nil, malformed("gltf json: %v", err)
	}
	if !strings.HasPrefix(gd.Asset.Version, "2.") {
		return nil, malformed("gltf asset version %q, want 2.x", gd.Asset.Version)
	}

	tokens := tokenSet(src.Table)
	unresolved, err := d.checkBuffers(&gd, tokens, bin)
	if err != nil {
		return nil, err
	}
	for _, img := range gd.Images {
		if _, ok := tokens[img.URI]; img.URI != "" && !ok && !manifest.IsDataURI(img.URI) {
			unresolved++
		}
	}

	root := scene.NewNode(rootName(src.Name), scene.TypeScene)
	root.SetAttr("version", gd.Asset.Version)
	if gd.Asset.Generator != "" {
		root.SetAttr("generator", gd.Asset.Generator)
	}
	if unresolved > 0 {
		root.SetAttr("unresolved", strconv.Itoa(unresolved))
	}

	roots, err := sceneRoots(&gd)
	if err != nil {
		return nil, err
	}
	visiting := make(map[int]bool)
	for _, idx := range roots {
		n, err := buildGLTFNode(&gd, idx, visiting)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

// sceneRoots returns the root node indices of the default scene. Documents
// without scenes use every node that is nobody's child.
func sceneRoots(gd *gltfDocument) ([]int, error) {
	if len(gd.Scenes) > 0 {
		idx := 0
		if gd.Scene != nil {
			idx = *gd.Scene
		}
		if idx < 0 || idx >= len(gd.Scenes) {
			return nil, malformed("scene %d out of range", idx)
		}
		return gd.Scenes[idx].Nodes, nil
	}

	child := make(map[int]bool)
	for _, n := range gd.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range gd.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func buildGLTFNode(gd *gltfDocument, idx int, visiting map[int]bool) (*scene.Node, error) {
	if idx < 0 || idx >= len(gd.Nodes) {
		return nil, malformed("node %d out of range", idx)
	}
	if visiting[idx] {
		return nil, malformed("node %d is its own ancestor", idx)
	}
	visiting[idx] = true
	defer delete(visiting, idx)

	src := gd.Nodes[idx]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	n := scene.NewNode(name, scene.TypeNode)
	if src.Mesh != nil {
		m := *src.Mesh
		if m < 0 || m >= len(gd.Meshes) {
			return nil, malformed("node %d: mesh %d out of range", idx, m)
		}
		meshName := gd.Meshes[m].Name
		if meshName == "" {
			meshName = fmt.Sprintf("mesh_%d", m)
		}
		n.Add(scene.NewNode(meshName, scene.TypeMesh))
	}
	for _, c := range src.Children {
		child, err := buildGLTFNode(gd, c, visiting)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// checkBuffers verifies every buffer it can reach and returns how many
// point at files that were not resolved.
func (d *GLTF) checkBuffers(gd *gltfDocument, tokens map[string]handle.Token, bin []byte) (int, error) {
	unresolved := 0
	for i, b := range gd.Buffers {
		var size int
		tok, resolved := tokens[b.URI]
		switch {
		case b.URI == "":
			if i != 0 || bin == nil {
				return 0, malformed("buffer %d has no uri and no binary chunk", i)
			}
			size = len(bin)
		case manifest.IsDataURI(b.URI):
			data, err := decodeDataURI(b.URI)
			if err != nil {
				return 0, malformed("buffer %d: %v", i, err)
			}
			size = len(data)
		case resolved:
			if d.Opener == nil {
				continue
			}
			data, err := d.Opener.Open(tok)
			if err != nil {
				return 0, fmt.Errorf("buffer %d: %w", i, err)
			}
			size = len(data)
		default:
			unresolved++
			continue
		}
		if size < b.ByteLength {
			return 0, malformed("buffer %d holds %d bytes, byteLength is %d", i, size, b.ByteLength)
		}
	}
	return unresolved, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.New("data uri has no payload")
	}
	meta, payload := uri[5:comma], uri[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	return []byte(payload), nil
}

// GLB decodes binary glTF containers.
type GLB struct {
	GLTF *GLTF
}

func (d *GLB) Decode(ctx context.Context, src Source) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, bin, err := splitGLB(src.Data)
	if err != nil {
		return nil, err
	}
	g := d.GLTF
	if g == nil {
		g = &GLTF{}
	}
	return g.decode(src, doc, bin)
}

// splitGLB returns the JSON and BIN chunks of a GLB file.
func splitGLB(data []byte) (doc, bin []byte, err error) {
	if len(data) < glbHeaderLen {
		return nil, nil, malformed("glb: %d bytes is shorter than the header", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return nil, nil, malformed("glb: bad magic")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != glbVersion {
		return nil, nil, malformed("glb: version %d, want %d", v, glbVersion)
	}
	total := int(binary.LittleEndian.Uint32(data[8:12]))
	if total > len(data) {
		return nil, nil, malformed("glb: header length %d exceeds %d bytes", total, len(data))
	}

	off := glbHeaderLen
	for off+8 <= total {
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		typ := binary.LittleEndian.Uint32(data[off+4 : off+8])
		off += 8
		if n < 0 || off+n > total {
			return nil, nil, malformed("glb: chunk overruns file")
		}
		chunk := data[off : off+n]
		off += n
		switch typ {
		case glbChunkJSON:
			if doc == nil {
				doc = chunk
			}
		case glbChunkBIN:
			if bin == nil {
				bin = chunk
			}
		}
	}
	if doc == nil {
		return nil, nil, malformed("glb: missing JSON chunk")
	}
	return doc, bin, nil
}
