package scene

import (
	"sync"
	"testing"

	"github.com/samcharles93/assetpipe/internal/handle"
)

type countingStore struct {
	mu       sync.Mutex
	released map[handle.Token]int
}

func (s *countingStore) Create([]byte) (handle.Token, error) { return "", nil }

func (s *countingStore) Release(tok handle.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released == nil {
		s.released = make(map[handle.Token]int)
	}
	s.released[tok]++
}

func TestReleaseExactlyOnce(t *testing.T) {
	t.Parallel()

	store := &countingStore{}
	hooks := 0
	sc := New(store, []handle.Token{"a", "b"}, WithReleaseHook(func(*Scene) { hooks++ }))

	var wg sync.WaitGroup
	total := make(chan int, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			total <- sc.Release()
		}()
	}
	wg.Wait()
	close(total)

	sum := 0
	for n := range total {
		sum += n
	}
	if sum != 2 {
		t.Fatalf("expected 2 releases in total, got %d", sum)
	}
	if hooks != 1 {
		t.Fatalf("expected release hook once, got %d", hooks)
	}
	for _, tok := range []handle.Token{"a", "b"} {
		if store.released[tok] != 1 {
			t.Fatalf("token %s released %d times", tok, store.released[tok])
		}
	}
	if !sc.Released() || len(sc.Tokens()) != 0 {
		t.Fatalf("scene should be released and own nothing")
	}
}

func TestNodeWalk(t *testing.T) {
	t.Parallel()

	root := NewNode("scene.gltf", TypeScene).Add(
		NewNode("body", TypeNode).Add(NewNode("wheel", TypeMesh)),
		NewNode("light", TypeNode),
	)
	if got := root.Count(); got != 4 {
		t.Fatalf("expected 4 nodes, got %d", got)
	}
	if n := root.Find("wheel"); n == nil || n.Type != TypeMesh {
		t.Fatalf("expected to find wheel mesh, got %+v", n)
	}
	if root.Find("missing") != nil {
		t.Fatal("unexpected match")
	}

	var depths []int
	root.Walk(func(depth int, n *Node) bool {
		depths = append(depths, depth)
		return n.Name != "body"
	})
	if len(depths) != 3 || depths[1] != 1 || depths[2] != 1 {
		t.Fatalf("unexpected walk depths %v", depths)
	}
}
