package bundle

// Default decompression limits. A single upload is held in memory in full,
// so these bound what one container may expand to.
const (
	DefaultMaxEntrySize int64 = 256 << 20
	DefaultMaxTotalSize int64 = 1 << 30
)

type config struct {
	maxEntrySize int64
	maxTotalSize int64
}

// Option configures Open.
type Option func(*config)

// WithMaxEntrySize caps the uncompressed size of any single entry.
// Values <= 0 disable the limit.
func WithMaxEntrySize(n int64) Option {
	return func(c *config) {
		c.maxEntrySize = n
	}
}

// WithMaxTotalSize caps the sum of uncompressed entry sizes.
// Values <= 0 disable the limit.
func WithMaxTotalSize(n int64) Option {
	return func(c *config) {
		c.maxTotalSize = n
	}
}

func newConfig(opts []Option) config {
	c := config{
		maxEntrySize: DefaultMaxEntrySize,
		maxTotalSize: DefaultMaxTotalSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
