package api

import (
	"sort"
	"sync"
	"time"

	"github.com/samcharles93/assetpipe/internal/scene"
)

type sceneRecord struct {
	Scene     *scene.Scene
	CreatedAt time.Time
}

// SceneStore keeps the scenes loaded through the API until they are deleted.
type SceneStore struct {
	mu     sync.Mutex
	scenes map[string]*sceneRecord
}

func NewSceneStore() *SceneStore {
	return &SceneStore{
		scenes: make(map[string]*sceneRecord),
	}
}

func (s *SceneStore) Put(sc *scene.Scene, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[sc.ID] = &sceneRecord{Scene: sc, CreatedAt: now}
}

func (s *SceneStore) Get(id string) (*sceneRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scenes[id]
	return rec, ok
}

// List returns every record, oldest first.
func (s *SceneStore) List() []*sceneRecord {
	s.mu.Lock()
	out := make([]*sceneRecord, 0, len(s.scenes))
	for _, rec := range s.scenes {
		out = append(out, rec)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Scene.ID < out[j].Scene.ID
	})
	return out
}

// Delete removes the scene and releases its handles. It returns the number
// of handles released and false when id is unknown.
func (s *SceneStore) Delete(id string) (int, bool) {
	s.mu.Lock()
	rec, ok := s.scenes[id]
	if ok {
		delete(s.scenes, id)
	}
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	return rec.Scene.Release(), true
}
