package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"

	"github.com/samcharles93/assetpipe/internal/scene"
)

var (
	fbxBinaryMagic = []byte("Kaydara FBX Binary  \x00")
	fbxModelLine   = regexp.MustCompile(`Model:\s*(?:\d+\s*,\s*)?"Model::([^"]*)"\s*,\s*"([^"]*)"`)
)

// FBX recognises binary and ASCII FBX files. Binary files yield only the
// root and their version; ASCII files also list their Model objects.
type FBX struct{}

func (FBX) Decode(ctx context.Context, src Source) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := scene.NewNode(rootName(src.Name), scene.TypeScene)
	if bytes.HasPrefix(src.Data, fbxBinaryMagic) {
		// magic, 0x1A 0x00, then a uint32 version.
		if len(src.Data) < len(fbxBinaryMagic)+6 {
			return nil, malformed("fbx: truncated header")
		}
		off := len(fbxBinaryMagic) + 2
		root.SetAttr("encoding", "binary")
		root.SetAttr("version", strconv.FormatUint(uint64(binary.LittleEndian.Uint32(src.Data[off:off+4])), 10))
		return root, nil
	}

	text := string(src.Data)
	first, _, _ := strings.Cut(strings.TrimLeft(text, "\ufeff \t\r\n"), "\n")
	if !strings.HasPrefix(first, "; FBX") {
		return nil, malformed("fbx: neither binary magic nor ASCII header")
	}
	root.SetAttr("encoding", "ascii")
	if fields := strings.Fields(first); len(fields) >= 3 {
		root.SetAttr("version", fields[2])
	}
	for _, m := range fbxModelLine.FindAllStringSubmatch(text, -1) {
		n := scene.NewNode(nameOr(m[1], "model"), scene.TypeModel)
		if m[2] != "" {
			n.SetAttr("class", m[2])
		}
		root.Add(n)
	}
	return root, nil
}
