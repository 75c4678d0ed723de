// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"testing"
)

// ZipEntry is one member written by Zip. A Name ending in "/" is written as a
// directory marker and Data is ignored.
type ZipEntry struct {
	Name string
	Data string
}

// Zip builds an in-memory zip container from entries, in the given order.
// Entries are stored uncompressed so tests can locate and corrupt payloads.
func Zip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Store}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/' {
			continue
		}
		if _, err := w.Write([]byte(e.Data)); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Corrupt flips one byte of the first occurrence of payload inside raw and
// returns the modified copy.
func Corrupt(t testing.TB, raw []byte, payload string) []byte {
	t.Helper()

	idx := bytes.Index(raw, []byte(payload))
	if idx < 0 {
		t.Fatalf("payload %q not found in container", payload)
	}
	out := bytes.Clone(raw)
	out[idx] ^= 0xFF
	return out
}
