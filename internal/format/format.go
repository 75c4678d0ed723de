// Package format maps upload filenames to the asset kinds the loader handles.
package format

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Kind is the closed set of asset kinds. The zero value is not a valid kind.
type Kind uint8

const (
	GLTF Kind = iota + 1
	GLB
	OBJ
	FBX
	Container
)

// Detect returns the kind for filename based only on its lowercase trailing
// extension. A name without an extension is unsupported.
func Detect(filename string) (Kind, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
	}
	switch ext := strings.ToLower(base[dot+1:]); ext {
	case "gltf":
		return GLTF, nil
	case "glb":
		return GLB, nil
	case "obj":
		return OBJ, nil
	case "fbx":
		return FBX, nil
	case "zip":
		return Container, nil
	default:
		return 0, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
}

// IsModel reports whether k is a model kind that can be a primary asset.
func (k Kind) IsModel() bool {
	switch k {
	case GLTF, GLB, OBJ, FBX:
		return true
	case Container:
		return false
	default:
		return false
	}
}

// SelfContained reports whether a model of kind k never references sibling
// files the loader can resolve.
func (k Kind) SelfContained() bool {
	switch k {
	case GLB, FBX:
		return true
	case GLTF, OBJ, Container:
		return false
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case GLTF:
		return "gltf"
	case GLB:
		return "glb"
	case OBJ:
		return "obj"
	case FBX:
		return "fbx"
	case Container:
		return "zip"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{GLTF, GLB, OBJ, FBX, Container}
}

// Extensions lists the accepted extensions, without the leading dot.
func Extensions() []string {
	kinds := Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
