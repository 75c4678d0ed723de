// Package decoder turns the bytes handed over by the loader into a scene
// hierarchy.
//
// The decoders in this package are structural: they validate a document
// and recover its node tree, but never build geometry. Callers that need
// real meshes register their own Decoder per kind.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/samcharles93/assetpipe/internal/format"
	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/manifest"
	"github.com/samcharles93/assetpipe/internal/scene"
)

var (
	ErrMalformed = errors.New("decoder: malformed document")
	ErrNoDecoder = errors.New("decoder: no decoder for kind")
)

// Source is what a Decoder receives for one load attempt.
type Source struct {
	// Name is the container entry path, or the upload name for plain files.
	Name string
	Kind format.Kind
	// Token is the handle wrapping Data.
	Token handle.Token
	// Data is the primary asset, with resolved references already rewritten
	// to their tokens.
	Data []byte
	// Table maps original references to tokens. Empty for plain files.
	Table *manifest.Table
}

// Decoder decodes one kind of model.
type Decoder interface {
	Decode(ctx context.Context, src Source) (*scene.Node, error)
}

// Func adapts a function to Decoder.
type Func func(ctx context.Context, src Source) (*scene.Node, error)

func (f Func) Decode(ctx context.Context, src Source) (*scene.Node, error) {
	return f(ctx, src)
}

// Opener gives decoders read access to the bytes behind a token.
type Opener interface {
	Open(tok handle.Token) ([]byte, error)
}

// Registry holds one Decoder per model kind.
type Registry struct {
	gltf Decoder
	glb  Decoder
	obj  Decoder
	fbx  Decoder
}

// NewRegistry returns a registry with the structural decoders. opener may be
// nil, in which case side-files are not inspected.
func NewRegistry(opener Opener) *Registry {
	gltf := &GLTF{Opener: opener}
	return &Registry{
		gltf: gltf,
		glb:  &GLB{GLTF: gltf},
		obj:  &OBJ{Opener: opener},
		fbx:  FBX{},
	}
}

// Set replaces the decoder for k.
func (r *Registry) Set(k format.Kind, d Decoder) error {
	switch k {
	case format.GLTF:
		r.gltf = d
	case format.GLB:
		r.glb = d
	case format.OBJ:
		r.obj = d
	case format.FBX:
		r.fbx = d
	case format.Container:
		return fmt.Errorf("%w: %s", ErrNoDecoder, k)
	default:
		return fmt.Errorf("%w: %s", ErrNoDecoder, k)
	}
	return nil
}

// For returns the decoder for k.
func (r *Registry) For(k format.Kind) (Decoder, error) {
	var d Decoder
	switch k {
	case format.GLTF:
		d = r.gltf
	case format.GLB:
		d = r.glb
	case format.OBJ:
		d = r.obj
	case format.FBX:
		d = r.fbx
	case format.Container:
	default:
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDecoder, k)
	}
	return d, nil
}

// Clone returns a copy that can be changed without affecting r.
func (r *Registry) Clone() *Registry {
	c := *r
	return &c
}

func malformed(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(msg, args...))
}

func rootName(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}

// tokenSet collects the tokens of every resolved reference.
func tokenSet(t *manifest.Table) map[string]handle.Token {
	out := make(map[string]handle.Token, t.Len())
	for _, e := range t.Entries() {
		out[string(e.Token)] = e.Token
	}
	return out
}
