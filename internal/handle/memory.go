package handle

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const DefaultPrefix = "blob:"

var ErrUnknownToken = errors.New("handle: unknown token")

// MemoryStore keeps handle payloads in process memory. Tokens take the form
// prefix + random UUID. It is safe for concurrent use.
type MemoryStore struct {
	prefix string

	mu    sync.RWMutex
	blobs map[Token][]byte
	bytes int64
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithPrefix sets the token prefix.
func WithPrefix(prefix string) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.prefix = prefix
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		prefix: DefaultPrefix,
		blobs:  make(map[Token][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create copies data into the store and returns a fresh token.
func (s *MemoryStore) Create(data []byte) (Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("handle: generate token: %w", err)
	}
	tok := Token(s.prefix + id.String())
	payload := bytes.Clone(data)
	if payload == nil {
		payload = []byte{}
	}

	s.mu.Lock()
	s.blobs[tok] = payload
	s.bytes += int64(len(payload))
	s.mu.Unlock()
	return tok, nil
}

// Release drops the payload for tok. Unknown tokens are ignored.
func (s *MemoryStore) Release(tok Token) {
	s.mu.Lock()
	if b, ok := s.blobs[tok]; ok {
		s.bytes -= int64(len(b))
		delete(s.blobs, tok)
	}
	s.mu.Unlock()
}

// Open returns the payload for tok. The slice must not be modified.
func (s *MemoryStore) Open(tok Token) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[tok]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, tok)
	}
	return b, nil
}

// Owns reports whether s looks like a token from this store. It checks the
// shape only; the handle may already be released.
func (s *MemoryStore) Owns(ref string) bool {
	if !strings.HasPrefix(ref, s.prefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(ref, s.prefix))
	return err == nil
}

// Len returns the number of live handles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Bytes returns the total payload size of live handles.
func (s *MemoryStore) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
