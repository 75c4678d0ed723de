package testutil

import (
	"errors"
	"sync"

	"github.com/samcharles93/assetpipe/internal/handle"
)

var ErrStoreFull = errors.New("testutil: store full")

// CountingStore is a handle.MemoryStore that records every create and
// release so tests can check that handles are released exactly once.
type CountingStore struct {
	*handle.MemoryStore

	mu       sync.Mutex
	created  []handle.Token
	releases map[handle.Token]int
	limit    int
}

func NewCountingStore() *CountingStore {
	return &CountingStore{
		MemoryStore: handle.NewMemoryStore(),
		releases:    make(map[handle.Token]int),
	}
}

// FailAfter makes Create fail once n handles have been created. Zero
// removes the limit.
func (s *CountingStore) FailAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

func (s *CountingStore) Create(data []byte) (handle.Token, error) {
	s.mu.Lock()
	if s.limit > 0 && len(s.created) >= s.limit {
		s.mu.Unlock()
		return "", ErrStoreFull
	}
	s.mu.Unlock()

	tok, err := s.MemoryStore.Create(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.created = append(s.created, tok)
	s.mu.Unlock()
	return tok, nil
}

func (s *CountingStore) Release(tok handle.Token) {
	s.mu.Lock()
	s.releases[tok]++
	s.mu.Unlock()
	s.MemoryStore.Release(tok)
}

// Created returns every token handed out, in order.
func (s *CountingStore) Created() []handle.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]handle.Token, len(s.created))
	copy(out, s.created)
	return out
}

// Releases returns how many times tok was released.
func (s *CountingStore) Releases(tok handle.Token) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases[tok]
}
