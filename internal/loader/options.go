package loader

import (
	"github.com/samcharles93/assetpipe/internal/decoder"
	"github.com/samcharles93/assetpipe/internal/format"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithDecoders replaces the whole decoder registry.
func WithDecoders(r *decoder.Registry) Option {
	return func(ld *Loader) {
		if r != nil {
			ld.decoders = r.Clone()
		}
	}
}

// WithDecoder replaces the decoder for one kind. Containers have no decoder
// and are ignored.
func WithDecoder(k format.Kind, d decoder.Decoder) Option {
	return func(ld *Loader) {
		ld.overrides = append(ld.overrides, override{kind: k, dec: d})
	}
}

// WithObserver registers fn to be called on every stage transition.
// Concurrent loads call it concurrently.
func WithObserver(fn func(file string, s Stage)) Option {
	return func(ld *Loader) {
		ld.observer = fn
	}
}

// WithArchiveOptions sets the limits used when opening containers.
func WithArchiveOptions(opts ...bundle.Option) Option {
	return func(ld *Loader) {
		ld.archiveOpts = append(ld.archiveOpts, opts...)
	}
}

// WithConcurrency bounds parallel extraction within one attempt.
func WithConcurrency(n int) Option {
	return func(ld *Loader) {
		ld.concurrency = n
	}
}

type override struct {
	kind format.Kind
	dec  decoder.Decoder
}
