package bundle

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Mapped is a read-only view of a file on disk.
type Mapped struct {
	Data    []byte
	mmapped bool
}

// OpenFile maps path read-only. If mmap is unavailable, it falls back to
// ReadAt-based loading. The returned value must be closed to release any
// mapping, and Data must not be retained after Close.
func OpenFile(path string) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("bundle: %s is a directory", path)
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("bundle: %s: size out of range", path)
	}
	size := int(size64)
	if size == 0 {
		return &Mapped{Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &Mapped{Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &Mapped{Data: data}, nil
}

// Close releases the mapping.
func (m *Mapped) Close() error {
	if m == nil || m.Data == nil {
		return nil
	}
	var err error
	if m.mmapped {
		err = unix.Munmap(m.Data)
	}
	m.Data = nil
	m.mmapped = false
	return err
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
