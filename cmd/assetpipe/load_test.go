package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/internal/scene"
	"github.com/samcharles93/assetpipe/internal/testutil"
)

func TestPrintTree(t *testing.T) {
	t.Parallel()

	root := scene.NewNode("cube.obj", scene.TypeScene)
	root.SetAttr("vertices", "8")
	root.SetAttr("faces", "6")
	root.Add(scene.NewNode("Cube", scene.TypeObject).Add(scene.NewNode("side", scene.TypeGroup)))

	var buf bytes.Buffer
	printTree(&buf, root)

	want := "scene cube.obj faces=6 vertices=8\n" +
		"  object Cube\n" +
		"    group side\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestReadInput(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		if _, _, err := readInput("  "); err != errNoInput {
			t.Fatalf("expected errNoInput, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := readInput(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("loads a bundle from disk", func(t *testing.T) {
		data := testutil.Zip(t,
			testutil.ZipEntry{Name: "model/scene.gltf", Data: `{"asset":{"version":"2.0"},"buffers":[{"uri":"scene.bin","byteLength":4}],"nodes":[{"name":"Root"}]}`},
			testutil.ZipEntry{Name: "model/scene.bin", Data: "\x00\x01\x02\x03"},
		)
		path := filepath.Join(t.TempDir(), "bundle.zip")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write bundle: %v", err)
		}

		f, release, err := readInput(path)
		if err != nil {
			t.Fatalf("readInput returned error: %v", err)
		}
		defer release()
		if f.Name != "bundle.zip" {
			t.Fatalf("unexpected name: %q", f.Name)
		}

		store, ld := newPipeline(logger.Discard())
		sc, err := ld.Load(context.Background(), f)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		var buf bytes.Buffer
		printScene(&buf, sc)
		out := buf.String()
		for _, want := range []string{"kind:       gltf", "primary:    model/scene.gltf", "scene.bin -> model/scene.bin", "node Root"} {
			if !strings.Contains(out, want) {
				t.Fatalf("output missing %q:\n%s", want, out)
			}
		}

		sc.Release()
		if n := store.Len(); n != 0 {
			t.Fatalf("expected all handles released, %d live", n)
		}
	})
}
