package refpath

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                    "",
		"a/b/c":               "a/b/c",
		"/a//b/./c/":          "a/b/c",
		"a/../b":              "b",
		"../../x":             "x",
		"a/b/../../../c":      "c",
		"./tex.png":           "tex.png",
		"model/../../etc/pwd": "etc/pwd",
		"..":                  "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveAndBaseDir(t *testing.T) {
	t.Parallel()

	if got := BaseDir("model/scene.gltf"); got != "model/" {
		t.Fatalf("BaseDir = %q", got)
	}
	if got := BaseDir("scene.gltf"); got != "" {
		t.Fatalf("BaseDir without slash = %q", got)
	}
	if got := BaseDir("a/b/"); got != "a/b/" {
		t.Fatalf("BaseDir of dir = %q", got)
	}

	tests := []struct {
		base, ref, want string
	}{
		{"model/", "scene.bin", "model/scene.bin"},
		{"model/", "./textures/a.png", "model/textures/a.png"},
		{"model/", "../shared/a.png", "shared/a.png"},
		{"model/", "..\\shared\\b.png", "shared/b.png"},
		{"", "../../../a.png", "a.png"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.base, tt.ref); got != tt.want {
			t.Fatalf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}

func TestResolveNeverEscapesRoot(t *testing.T) {
	t.Parallel()

	bases := []string{"", "a/", "a/b/", "a/b/c/", "../", "./x/"}
	refs := []string{"..", "../..", "../../../../x", "a/../../..", "./../y", "../a/../../b", "x/./../..", "...", "..a/.."}
	for _, b := range bases {
		for _, r := range refs {
			got := Normalize(Resolve(b, r))
			if got == ".." || strings.HasPrefix(got, "../") {
				t.Fatalf("Resolve(%q, %q) escaped root: %q", b, r, got)
			}
			for _, seg := range strings.Split(got, "/") {
				if seg == ".." {
					t.Fatalf("Resolve(%q, %q) kept a .. segment: %q", b, r, got)
				}
			}
		}
	}
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	got := Candidates("model/", "my%20texture.png")
	want := []string{"model/my%20texture.png", "model/my texture.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Candidates mismatch (-want +got):\n%s", diff)
	}

	if got := Candidates("", "plain.png"); len(got) != 1 || got[0] != "plain.png" {
		t.Fatalf("plain candidates = %v", got)
	}
	if got := Candidates("", "bad%zz.png"); len(got) != 1 {
		t.Fatalf("invalid escape should yield one candidate, got %v", got)
	}
}
