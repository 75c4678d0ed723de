// Package bundle opens zip containers that carry a model and its side-files.
//
// An Archive is fully read and CRC-checked when it is opened. After Open
// returns, the archive is immutable and safe for concurrent Extract calls.
package bundle

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Entry describes one container member.
type Entry struct {
	// Path is the forward-slash path relative to the container root.
	Path string

	// Dir marks directory entries. They carry no data.
	Dir bool

	// Size is the uncompressed size in bytes.
	Size uint64

	// CRC32 is the checksum recorded in the container.
	CRC32 uint32
}

// Archive is an opened container.
type Archive struct {
	entries []Entry
	data    map[string][]byte
	dirs    map[string]struct{}
}

// Open parses data as a zip container and validates every file entry by
// reading it to the end, which checks its CRC-32. Any failure is reported as
// ErrCorruptArchive; a corrupt entry fails the whole open.
func Open(data []byte, opts ...Option) (*Archive, error) {
	cfg := newConfig(opts)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	a := &Archive{
		entries: make([]Entry, 0, len(zr.File)),
		data:    make(map[string][]byte, len(zr.File)),
		dirs:    make(map[string]struct{}),
	}

	var total int64
	for _, zf := range zr.File {
		name := cleanEntryName(zf.Name)
		if name == "" {
			continue
		}
		if zf.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if _, seen := a.dirs[name]; seen {
				continue
			}
			a.dirs[name] = struct{}{}
			a.entries = append(a.entries, Entry{Path: name, Dir: true})
			continue
		}
		// Duplicates are read so their checksums are verified too.
		payload, err := readEntry(zf, cfg.maxEntrySize)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrCorruptArchive, name, err)
		}
		total += int64(len(payload))
		if cfg.maxTotalSize > 0 && total > cfg.maxTotalSize {
			return nil, fmt.Errorf("%w: uncompressed size exceeds %d bytes", ErrCorruptArchive, cfg.maxTotalSize)
		}
		if _, seen := a.data[name]; seen {
			// First occurrence wins, matching central directory order.
			continue
		}

		a.data[name] = payload
		a.entries = append(a.entries, Entry{
			Path:  name,
			Size:  uint64(len(payload)),
			CRC32: zf.CRC32,
		})
	}

	return a, nil
}

// Entries returns the container members in container-native order.
// Callers must not rely on the order matching any directory hierarchy.
func (a *Archive) Entries() []Entry {
	if a == nil {
		return nil
	}
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Extract returns the bytes of the file entry at path. The returned slice is
// shared with the archive and must not be modified.
func (a *Archive) Extract(path string) ([]byte, error) {
	if a == nil {
		return nil, ErrEntryNotFound
	}
	b, ok := a.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	return b, nil
}

// Has reports whether a file entry exists at path.
func (a *Archive) Has(path string) bool {
	if a == nil {
		return false
	}
	_, ok := a.data[path]
	return ok
}

// Len returns the number of entries, directories included.
func (a *Archive) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

func readEntry(zf *zip.File, maxSize int64) ([]byte, error) {
	if maxSize > 0 && zf.UncompressedSize64 > uint64(maxSize) {
		return nil, ErrEntryTooLarge
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	if maxSize > 0 {
		// The header size can lie; read one byte past the cap to catch it.
		r = io.LimitReader(rc, maxSize+1)
	}
	buf := make([]byte, 0, int(min(zf.UncompressedSize64, 1<<20)))
	w := bytes.NewBuffer(buf)
	if _, err := io.Copy(w, r); err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(w.Len()) > maxSize {
		return nil, ErrEntryTooLarge
	}
	return w.Bytes(), nil
}

// cleanEntryName converts backslash separators written by some Windows tools
// and strips leading "./" and "/" so names line up with resolved references.
func cleanEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	for {
		switch {
		case strings.HasPrefix(name, "./"):
			name = name[2:]
		case strings.HasPrefix(name, "/"):
			name = name[1:]
		default:
			return name
		}
	}
}
