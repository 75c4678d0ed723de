// Package handle tracks the transient byte buffers a load attempt hands to
// decoders.
//
// A Store is the external capability that creates and releases handles. A
// Scope is the per-attempt bookkeeping on top of it: every handle an attempt
// creates goes through its own Scope, and on failure the Scope releases them
// all. Scopes are never shared across attempts.
package handle

import (
	"errors"
	"sync"
)

// Token identifies a handle. Consumers pass it back to the Store that
// created it; its contents are opaque.
type Token string

// Store creates and releases handles.
type Store interface {
	Create(data []byte) (Token, error)
	Release(tok Token)
}

var ErrScopeClosed = errors.New("handle: scope closed")

// Scope records handles created during one load attempt.
type Scope struct {
	store Store

	mu     sync.Mutex
	tokens []Token
	closed bool
}

// NewScope returns an empty scope backed by store.
func NewScope(store Store) *Scope {
	return &Scope{store: store}
}

// Create makes a handle for data and records it. It is safe to call from
// several goroutines working on the same attempt.
func (s *Scope) Create(data []byte) (Token, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrScopeClosed
	}

	tok, err := s.store.Create(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Closed while the store call was in flight; nobody else will see this token.
		s.store.Release(tok)
		return "", ErrScopeClosed
	}
	s.tokens = append(s.tokens, tok)
	return tok, nil
}

// Tokens returns the handles created so far, in creation order.
func (s *Scope) Tokens() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Len returns the number of handles recorded.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// ReleaseAll releases every recorded handle and closes the scope. It is
// idempotent and safe on an empty scope. It returns the number released.
func (s *Scope) ReleaseAll() int {
	s.mu.Lock()
	tokens := s.tokens
	s.tokens = nil
	s.closed = true
	s.mu.Unlock()

	for _, tok := range tokens {
		s.store.Release(tok)
	}
	return len(tokens)
}

// Detach closes the scope and returns its handles without releasing them.
// Ownership passes to the caller. Later ReleaseAll calls are no-ops.
func (s *Scope) Detach() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := s.tokens
	s.tokens = nil
	s.closed = true
	return tokens
}
