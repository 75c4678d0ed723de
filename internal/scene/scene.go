// Package scene holds the in-memory result of a successful load.
package scene

import (
	"sync"

	"github.com/samcharles93/assetpipe/internal/format"
	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/manifest"
)

// Scene is a decoded model together with the handles its decoder was given.
// The caller owns those handles and gives them back with Release.
type Scene struct {
	ID   string
	Name string
	Kind format.Kind
	Root *Node

	// Primary is the handle wrapping the bytes the decoder received.
	Primary handle.Token
	// Path is the container entry the scene was decoded from. Empty for
	// uploads that were not containers.
	Path string
	// Table maps every resolved reference to its handle.
	Table *manifest.Table
	// Unresolved lists references that named no entry in the container.
	Unresolved []manifest.Reference

	store     handle.Store
	onRelease func(*Scene)

	mu       sync.Mutex
	tokens   []handle.Token
	released bool
}

// Option configures a Scene.
type Option func(*Scene)

// WithReleaseHook registers fn to run once, after the scene's handles are
// released.
func WithReleaseHook(fn func(*Scene)) Option {
	return func(s *Scene) {
		s.onRelease = fn
	}
}

// New returns a scene that owns tokens, which were created in store.
func New(store handle.Store, tokens []handle.Token, opts ...Option) *Scene {
	s := &Scene{
		store:  store,
		tokens: tokens,
		Table:  manifest.NewTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens returns the handles the scene still owns.
func (s *Scene) Tokens() []handle.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]handle.Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Released reports whether Release has run.
func (s *Scene) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Release gives every handle back to the store. Only the first call does
// anything; it returns the number of handles released.
func (s *Scene) Release() int {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return 0
	}
	s.released = true
	tokens := s.tokens
	s.tokens = nil
	s.mu.Unlock()

	for _, tok := range tokens {
		s.store.Release(tok)
	}
	if s.onRelease != nil {
		s.onRelease(s)
	}
	return len(tokens)
}
