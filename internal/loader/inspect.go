package loader

import (
	"fmt"

	"github.com/samcharles93/assetpipe/internal/format"
	"github.com/samcharles93/assetpipe/internal/manifest"
	"github.com/samcharles93/assetpipe/internal/refpath"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

// Report describes what Load would do with a file, without creating any
// handles or decoding anything.
type Report struct {
	Name        string
	Kind        format.Kind
	Entries     []bundle.Entry
	Primary     string
	PrimaryKind format.Kind
	References  []ReportReference
}

// ReportReference is one reference found in the primary asset or its
// material library.
type ReportReference struct {
	Value  string
	Rule   string
	Source string
	// Path is the entry the reference resolves to; empty when it does not.
	Path string
}

// Resolved reports whether the reference names an entry in the container.
func (r ReportReference) Resolved() bool {
	return r.Path != ""
}

// Inspect detects f, opens it when it is a container, locates the primary
// asset and lists its references. Errors are *LoadError values as from Load.
func (l *Loader) Inspect(f File) (*Report, error) {
	fail := func(s Stage, err error) error {
		return &LoadError{Stage: s, File: f.Name, Err: err}
	}

	kind, err := format.Detect(f.Name)
	if err != nil {
		return nil, fail(StageDetecting, err)
	}
	rep := &Report{Name: f.Name, Kind: kind, PrimaryKind: kind}
	if kind != format.Container {
		rep.Primary = f.Name
		return rep, nil
	}

	ar, err := bundle.Open(f.Data, l.archiveOpts...)
	if err != nil {
		return nil, fail(StageExtractingArchive, fmt.Errorf("%w: %w", ErrArchiveCorrupt, err))
	}
	rep.Entries = ar.Entries()

	p, err := locatePrimary(ar)
	if err != nil {
		return nil, fail(StageLocatingPrimaryAsset, err)
	}
	rep.Primary, rep.PrimaryKind = p.path, p.kind

	refs, err := inspectReferences(ar, p)
	if err != nil {
		return nil, fail(StageResolvingReferences, fmt.Errorf("%w: %w", ErrDecodeFailure, err))
	}
	rep.References = refs
	return rep, nil
}

func inspectReferences(ar *bundle.Archive, p primary) ([]ReportReference, error) {
	var out []ReportReference
	add := func(source string, refs []manifest.Reference) {
		for _, ref := range refs {
			out = append(out, ReportReference{
				Value:  ref.Value,
				Rule:   ref.Rule.String(),
				Source: source,
				Path:   find(ar, refpath.BaseDir(source), ref.Value),
			})
		}
	}

	switch p.kind {
	case format.GLTF:
		refs, err := manifest.GLTFReferences(p.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", manifest.ErrMalformed, err)
		}
		add(p.path, refs)
	case format.OBJ:
		candidates, ok := manifest.MaterialLibraries(string(p.data))
		if !ok {
			return nil, nil
		}
		base := refpath.BaseDir(p.path)
		lib := ReportReference{Value: candidates[0], Rule: manifest.RuleMaterialLibrary.String(), Source: p.path}
		for _, c := range candidates {
			if hit := find(ar, base, c); hit != "" {
				lib.Value, lib.Path = c, hit
				break
			}
		}
		out = append(out, lib)
		if lib.Resolved() {
			data, err := ar.Extract(lib.Path)
			if err != nil {
				return nil, err
			}
			add(lib.Path, manifest.MTLTextures(string(data)))
		}
	case format.GLB, format.FBX, format.Container:
	}
	return out, nil
}

func find(ar *bundle.Archive, base, ref string) string {
	for _, c := range refpath.Candidates(base, ref) {
		if c != "" && ar.Has(c) {
			return c
		}
	}
	return ""
}
