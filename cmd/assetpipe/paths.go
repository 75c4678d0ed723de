package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

var errNoInput = errors.New("missing input file")

// readInput maps the file at path and returns it as a loader.File named by
// its base name. The caller must call release once the load is finished and
// nothing references File.Data any more.
func readInput(path string) (loader.File, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return loader.File{}, nil, errNoInput
	}
	m, err := bundle.OpenFile(path)
	if err != nil {
		return loader.File{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	release := func() { _ = m.Close() }
	return loader.File{Name: filepath.Base(path), Data: m.Data}, release, nil
}

// newPipeline builds the handle store and loader shared by every command
// from the loader flags.
func newPipeline(log logger.Logger, opts ...loader.Option) (*handle.MemoryStore, *loader.Loader) {
	var storeOpts []handle.MemoryStoreOption
	if handlePrefix != "" {
		storeOpts = append(storeOpts, handle.WithPrefix(handlePrefix))
	}
	store := handle.NewMemoryStore(storeOpts...)
	opts = append([]loader.Option{
		loader.WithLogger(log),
		loader.WithConcurrency(int(concurrency)),
		loader.WithArchiveOptions(
			bundle.WithMaxEntrySize(maxEntryBytes),
			bundle.WithMaxTotalSize(maxArchiveBytes),
		),
	}, opts...)
	return store, loader.New(store, opts...)
}
