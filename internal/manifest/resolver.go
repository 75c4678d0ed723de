package manifest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/internal/refpath"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

// DefaultConcurrency bounds parallel extraction within one resolution pass.
const DefaultConcurrency = 4

var (
	// ErrMalformed reports a manifest that could not be parsed.
	ErrMalformed = errors.New("manifest: malformed document")
	// ErrCreateHandle reports a handle the store refused to create.
	ErrCreateHandle = errors.New("manifest: create handle")
)

// Archive is the read side of an opened container.
type Archive interface {
	Extract(path string) ([]byte, error)
}

// Resolver resolves the references of one manifest against one archive and
// records a handle for every hit in scope. A Resolver belongs to a single
// load attempt.
type Resolver struct {
	Archive     Archive
	Scope       *handle.Scope
	Log         logger.Logger
	Concurrency int
}

// Resolution is the outcome of resolving a primary manifest.
type Resolution struct {
	// Table holds every resolved reference, nested manifests included.
	Table *Table
	// Skipped lists references that named no archive entry.
	Skipped []Reference
}

type hit struct {
	ref   Reference
	path  string
	token handle.Token
	size  int
	found bool
}

// ResolveGLTF resolves the buffer and image URIs of the glTF document stored
// at entryPath. Missing targets are skipped, not fatal.
func (r *Resolver) ResolveGLTF(ctx context.Context, entryPath string, doc []byte) (*Resolution, error) {
	refs, err := GLTFReferences(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, entryPath, err)
	}
	res := &Resolution{Table: NewTable()}
	if err := r.resolveInto(ctx, res, entryPath, refs); err != nil {
		return nil, err
	}
	return res, nil
}

// ResolveOBJ resolves the material library of the OBJ document at
// entryPath. The library's own texture references are resolved and
// rewritten first; the rewritten library is then registered under the
// mtllib reference.
func (r *Resolver) ResolveOBJ(ctx context.Context, entryPath string, doc []byte) (*Resolution, error) {
	res := &Resolution{Table: NewTable()}

	candidates, ok := MaterialLibraries(string(doc))
	if !ok {
		return res, nil
	}

	base := refpath.BaseDir(entryPath)
	var (
		libRef  string
		libPath string
		libData []byte
	)
	for _, cand := range candidates {
		p, data, err := r.lookup(base, cand)
		if err != nil {
			return nil, err
		}
		if data != nil {
			libRef, libPath, libData = cand, p, data
			break
		}
	}
	if libData == nil {
		res.Skipped = append(res.Skipped, Reference{Value: candidates[0], Rule: RuleMaterialLibrary})
		r.log().Debug("material library not in archive", "manifest", entryPath, "reference", candidates[0])
		return res, nil
	}

	if err := r.resolveInto(ctx, res, libPath, MTLTextures(string(libData))); err != nil {
		return nil, err
	}
	rewritten := Rewrite(string(libData), res.Table.From(libPath))

	tok, err := r.Scope.Create([]byte(rewritten))
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrCreateHandle, libPath, err)
	}
	res.Table.Add(Entry{
		Reference: libRef,
		Rule:      RuleMaterialLibrary,
		Source:    entryPath,
		Path:      libPath,
		Token:     tok,
		Size:      len(rewritten),
	})
	return res, nil
}

// resolveInto looks up refs relative to the manifest at source, extracting
// hits concurrently, and appends them to res in reference order.
func (r *Resolver) resolveInto(ctx context.Context, res *Resolution, source string, refs []Reference) error {
	if len(refs) == 0 {
		return nil
	}
	base := refpath.BaseDir(source)
	hits := make([]hit, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, data, err := r.lookup(base, ref.Value)
			if err != nil {
				return err
			}
			if data == nil {
				hits[i] = hit{ref: ref}
				return nil
			}
			tok, err := r.Scope.Create(data)
			if err != nil {
				return fmt.Errorf("%w for %s: %w", ErrCreateHandle, p, err)
			}
			hits[i] = hit{ref: ref, path: p, token: tok, size: len(data), found: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, h := range hits {
		if !h.found {
			res.Skipped = append(res.Skipped, h.ref)
			r.log().Debug("reference not in archive", "manifest", source, "reference", h.ref.Value, "rule", h.ref.Rule.String())
			continue
		}
		res.Table.Add(Entry{
			Reference: h.ref.Value,
			Rule:      h.ref.Rule,
			Source:    source,
			Path:      h.path,
			Token:     h.token,
			Size:      h.size,
		})
	}
	return nil
}

// lookup returns the first candidate path for ref present in the archive.
// A nil payload with a nil error means the reference is unresolvable.
func (r *Resolver) lookup(base, ref string) (string, []byte, error) {
	for _, p := range refpath.Candidates(base, ref) {
		if p == "" {
			continue
		}
		data, err := r.Archive.Extract(p)
		if errors.Is(err, bundle.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("extract %s: %w", p, err)
		}
		if data == nil {
			data = []byte{}
		}
		return p, data, nil
	}
	return "", nil, nil
}

func (r *Resolver) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return DefaultConcurrency
}

func (r *Resolver) log() logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Discard()
}
