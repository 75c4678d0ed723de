package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/samcharles93/assetpipe/internal/decoder"
	"github.com/samcharles93/assetpipe/internal/format"
	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/internal/manifest"
	"github.com/samcharles93/assetpipe/internal/scene"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

// attempt is one pass through the pipeline. It is used by a single
// goroutine; only its scope is touched concurrently.
type attempt struct {
	loader *Loader
	file   File
	scope  *handle.Scope
	log    logger.Logger
	stage  Stage
}

// primary is the model entry chosen from a container.
type primary struct {
	path string
	kind format.Kind
	data []byte
}

func (a *attempt) run(ctx context.Context) (*scene.Scene, error) {
	a.enter(StageDetecting)
	kind, err := format.Detect(a.file.Name)
	if err != nil {
		return nil, a.fail(err)
	}

	switch kind {
	case format.GLTF, format.GLB, format.OBJ, format.FBX:
		if err := a.checkpoint(ctx); err != nil {
			return nil, err
		}
		return a.decodeFile(ctx, kind)
	case format.Container:
		return a.runContainer(ctx)
	default:
		return nil, a.fail(fmt.Errorf("%w: kind %s", ErrUnsupportedFormat, kind))
	}
}

// decodeFile handles uploads that are a model on their own: one handle for
// the whole file and an empty table.
func (a *attempt) decodeFile(ctx context.Context, kind format.Kind) (*scene.Scene, error) {
	a.enter(StageDecoding)
	tok, err := a.scope.Create(a.file.Data)
	if err != nil {
		return nil, a.fail(fmt.Errorf("%w: %w", ErrHandleCreate, err))
	}
	src := decoder.Source{
		Name:  a.file.Name,
		Kind:  kind,
		Token: tok,
		Data:  a.file.Data,
		Table: manifest.NewTable(),
	}
	return a.decode(ctx, src, nil)
}

func (a *attempt) runContainer(ctx context.Context) (*scene.Scene, error) {
	if err := a.checkpoint(ctx); err != nil {
		return nil, err
	}
	a.enter(StageExtractingArchive)
	ar, err := bundle.Open(a.file.Data, a.loader.archiveOpts...)
	if err != nil {
		return nil, a.fail(fmt.Errorf("%w: %w", ErrArchiveCorrupt, err))
	}

	if err := a.checkpoint(ctx); err != nil {
		return nil, err
	}
	a.enter(StageLocatingPrimaryAsset)
	p, err := locatePrimary(ar)
	if err != nil {
		return nil, a.fail(err)
	}
	a.log.Debug("primary asset", "path", p.path, "kind", p.kind.String(), "entries", ar.Len())

	if err := a.checkpoint(ctx); err != nil {
		return nil, err
	}
	a.enter(StageResolvingReferences)
	res, err := a.resolve(ctx, ar, p)
	if err != nil {
		return nil, a.fail(classifyResolve(ctx, err))
	}

	if err := a.checkpoint(ctx); err != nil {
		return nil, err
	}
	a.enter(StageRewriting)
	data := p.data
	if own := res.Table.From(p.path); own.Len() > 0 {
		if p.kind == format.GLTF {
			data = []byte(manifest.RewriteJSON(string(p.data), own))
		} else {
			data = []byte(manifest.Rewrite(string(p.data), own))
		}
	}
	tok, err := a.scope.Create(data)
	if err != nil {
		return nil, a.fail(fmt.Errorf("%w: %w", ErrHandleCreate, err))
	}

	if err := a.checkpoint(ctx); err != nil {
		return nil, err
	}
	a.enter(StageDecoding)
	src := decoder.Source{
		Name:  p.path,
		Kind:  p.kind,
		Token: tok,
		Data:  data,
		Table: res.Table,
	}
	sc, err := a.decode(ctx, src, res.Skipped)
	if err != nil {
		return nil, err
	}
	sc.Path = p.path
	return sc, nil
}

// resolve runs reference resolution for the primary kind. GLB and FBX carry
// their data inline and have nothing to resolve.
func (a *attempt) resolve(ctx context.Context, ar *bundle.Archive, p primary) (*manifest.Resolution, error) {
	r := &manifest.Resolver{
		Archive:     ar,
		Scope:       a.scope,
		Log:         a.log,
		Concurrency: a.loader.concurrency,
	}
	switch p.kind {
	case format.GLTF:
		return r.ResolveGLTF(ctx, p.path, p.data)
	case format.OBJ:
		return r.ResolveOBJ(ctx, p.path, p.data)
	case format.GLB, format.FBX:
		return &manifest.Resolution{Table: manifest.NewTable()}, nil
	case format.Container:
		return nil, fmt.Errorf("%w: nested container %s", ErrMissingPrimaryAsset, p.path)
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedFormat, p.kind)
	}
}

func (a *attempt) decode(ctx context.Context, src decoder.Source, skipped []manifest.Reference) (*scene.Scene, error) {
	dec, err := a.loader.decoders.For(src.Kind)
	if err != nil {
		return nil, a.fail(fmt.Errorf("%w: %w", ErrDecodeFailure, err))
	}
	root, err := dec.Decode(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, a.fail(fmt.Errorf("%w: %w", ErrCanceled, err))
		}
		return nil, a.fail(fmt.Errorf("%w: %w", ErrDecodeFailure, err))
	}
	if root == nil {
		return nil, a.fail(fmt.Errorf("%w: decoder returned no scene", ErrDecodeFailure))
	}

	sc := scene.New(a.loader.store, a.scope.Detach(), scene.WithReleaseHook(a.loader.forget))
	sc.Name = a.file.Name
	sc.Kind = src.Kind
	sc.Root = root
	sc.Primary = src.Token
	sc.Table = src.Table
	sc.Unresolved = skipped
	return sc, nil
}

// locatePrimary returns the first file entry, in container order, with a
// model extension. macOS resource-fork entries are ignored.
func locatePrimary(ar *bundle.Archive) (primary, error) {
	for _, e := range ar.Entries() {
		if e.Dir || ignoredEntry(e.Path) {
			continue
		}
		kind, err := format.Detect(e.Path)
		if err != nil || !kind.IsModel() {
			continue
		}
		data, err := ar.Extract(e.Path)
		if err != nil {
			return primary{}, fmt.Errorf("%w: %w", ErrArchiveCorrupt, err)
		}
		return primary{path: e.Path, kind: kind, data: data}, nil
	}
	return primary{}, fmt.Errorf("%w: no %s entry in container", ErrMissingPrimaryAsset, strings.Join(modelExtensions(), "|"))
}

func ignoredEntry(p string) bool {
	return strings.HasPrefix(p, "__MACOSX/") || strings.HasPrefix(path.Base(p), "._")
}

func modelExtensions() []string {
	var out []string
	for _, k := range format.Kinds() {
		if k.IsModel() {
			out = append(out, "*."+strings.ToLower(k.String()))
		}
	}
	return out
}

// classifyResolve maps a resolution error onto the load error taxonomy.
func classifyResolve(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	case errors.Is(err, manifest.ErrCreateHandle), errors.Is(err, handle.ErrScopeClosed):
		return fmt.Errorf("%w: %w", ErrHandleCreate, err)
	case errors.Is(err, manifest.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	default:
		return fmt.Errorf("%w: %w", ErrArchiveCorrupt, err)
	}
}

func (a *attempt) enter(s Stage) {
	a.stage = s
	a.log.Debug("stage", "stage", s.String())
	if fn := a.loader.observer; fn != nil {
		fn(a.file.Name, s)
	}
}

// checkpoint fails the attempt if ctx is done. It runs between stages.
func (a *attempt) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return a.fail(fmt.Errorf("%w: %w", ErrCanceled, err))
	}
	return nil
}

func (a *attempt) fail(err error) error {
	return &LoadError{Stage: a.stage, File: a.file.Name, Err: err}
}
