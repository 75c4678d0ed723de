package api

import (
	"time"

	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/scene"
)

// SceneView is the JSON form of a loaded scene.
type SceneView struct {
	ID         string          `json:"id"`
	Object     string          `json:"object"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Path       string          `json:"path,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	Primary    string          `json:"primary"`
	Handles    int             `json:"handles"`
	References []ReferenceView `json:"references"`
	Unresolved []string        `json:"unresolved,omitempty"`
	Root       *scene.Node     `json:"root"`
}

type ReferenceView struct {
	Reference string `json:"reference"`
	Rule      string `json:"rule"`
	Source    string `json:"source"`
	Path      string `json:"path,omitempty"`
	Token     string `json:"token,omitempty"`
	Size      int    `json:"size,omitempty"`
}

type SceneList struct {
	Object string      `json:"object"`
	Data   []SceneView `json:"data"`
}

type DeleteSceneResp struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Deleted  bool   `json:"deleted"`
	Released int    `json:"released"`
}

type EntryView struct {
	Path string `json:"path"`
	Dir  bool   `json:"dir,omitempty"`
	Size uint64 `json:"size"`
}

// InspectView is the JSON form of a loader.Report.
type InspectView struct {
	Object      string          `json:"object"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Primary     string          `json:"primary"`
	PrimaryKind string          `json:"primary_kind"`
	Entries     []EntryView     `json:"entries,omitempty"`
	References  []ReferenceView `json:"references"`
}

// NewSceneView converts sc. The tree is shared, not copied.
func NewSceneView(sc *scene.Scene, createdAt time.Time) SceneView {
	v := SceneView{
		ID:         sc.ID,
		Object:     "scene",
		Name:       sc.Name,
		Kind:       sc.Kind.String(),
		Path:       sc.Path,
		CreatedAt:  createdAt.Unix(),
		Primary:    string(sc.Primary),
		Handles:    len(sc.Tokens()),
		References: []ReferenceView{},
		Root:       sc.Root,
	}
	for _, e := range sc.Table.Entries() {
		v.References = append(v.References, ReferenceView{
			Reference: e.Reference,
			Rule:      e.Rule.String(),
			Source:    e.Source,
			Path:      e.Path,
			Token:     string(e.Token),
			Size:      e.Size,
		})
	}
	for _, ref := range sc.Unresolved {
		v.Unresolved = append(v.Unresolved, ref.Value)
	}
	return v
}

// NewInspectView converts rep.
func NewInspectView(rep *loader.Report) InspectView {
	v := InspectView{
		Object:      "inspection",
		Name:        rep.Name,
		Kind:        rep.Kind.String(),
		Primary:     rep.Primary,
		PrimaryKind: rep.PrimaryKind.String(),
		References:  []ReferenceView{},
	}
	for _, e := range rep.Entries {
		v.Entries = append(v.Entries, EntryView{Path: e.Path, Dir: e.Dir, Size: e.Size})
	}
	for _, r := range rep.References {
		v.References = append(v.References, ReferenceView{
			Reference: r.Value,
			Rule:      r.Rule,
			Source:    r.Source,
			Path:      r.Path,
		})
	}
	return v
}
