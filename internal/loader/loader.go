// Package loader turns an uploaded model file, or a zip container holding
// one, into a decoded scene.
//
// Each call to Load is an attempt that moves through the Stage values in
// order. Every handle an attempt creates lives in that attempt's own
// handle.Scope; if the attempt fails, the scope is released before the error
// is returned. On success the handles move to the returned scene.Scene and
// the caller gives them back with Scene.Release.
package loader

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/samcharles93/assetpipe/internal/decoder"
	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/logger"
	"github.com/samcharles93/assetpipe/internal/scene"
	"github.com/samcharles93/assetpipe/pkg/bundle"
)

// File is one upload: its declared name and its bytes.
type File struct {
	Name string
	Data []byte
}

// Loader runs load attempts against one handle store.
type Loader struct {
	store       handle.Store
	decoders    *decoder.Registry
	overrides   []override
	log         logger.Logger
	observer    func(string, Stage)
	archiveOpts []bundle.Option
	concurrency int

	mu     sync.Mutex
	live   map[*scene.Scene]struct{}
	closed bool
}

// New returns a Loader that creates handles in store. When store can also
// open its handles, the structural decoders use it to inspect side-files.
func New(store handle.Store, opts ...Option) *Loader {
	l := &Loader{
		store: store,
		log:   logger.Discard(),
		live:  make(map[*scene.Scene]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.decoders == nil {
		opener, _ := store.(decoder.Opener)
		l.decoders = decoder.NewRegistry(opener)
	}
	for _, o := range l.overrides {
		if err := l.decoders.Set(o.kind, o.dec); err != nil {
			l.log.Warn("decoder override ignored", "kind", o.kind.String(), "error", err)
		}
	}
	return l
}

// Load runs one attempt for f.
func (l *Loader) Load(ctx context.Context, f File) (*scene.Scene, error) {
	if l.isClosed() {
		return nil, &LoadError{Stage: StageIdle, File: f.Name, Err: ErrClosed}
	}

	a := &attempt{
		loader: l,
		file:   f,
		scope:  handle.NewScope(l.store),
		log:    l.log.With(logger.ComponentKey, "loader", "file", f.Name),
	}
	sc, err := a.run(ctx)
	if err != nil {
		if n := a.scope.ReleaseAll(); n > 0 {
			a.log.Warn("rolled back load", "stage", StageOf(err).String(), "handles", n)
		}
		a.enter(StageFailed)
		a.log.Debug("load failed", "error", err)
		return nil, err
	}

	sc.ID = uuid.NewString()
	if !l.track(sc) {
		sc.Release()
		a.enter(StageFailed)
		return nil, &LoadError{Stage: StageDecoding, File: f.Name, Err: ErrClosed}
	}
	a.enter(StageSucceeded)
	a.log.Info("loaded model", "id", sc.ID, "kind", sc.Kind.String(), "references", sc.Table.Len(), "unresolved", len(sc.Unresolved))
	return sc, nil
}

// Go starts Load in its own goroutine.
func (l *Loader) Go(ctx context.Context, f File) *Future {
	fut := &Future{done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		fut.scene, fut.err = l.Load(ctx, f)
	}()
	return fut
}

// Live returns the number of scenes loaded and not yet released.
func (l *Loader) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Close releases every scene that is still live and makes later loads fail
// with ErrClosed. It returns the number of handles released.
func (l *Loader) Close() int {
	l.mu.Lock()
	l.closed = true
	scenes := make([]*scene.Scene, 0, len(l.live))
	for sc := range l.live {
		scenes = append(scenes, sc)
	}
	l.mu.Unlock()

	released := 0
	for _, sc := range scenes {
		released += sc.Release()
	}
	return released
}

func (l *Loader) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// track records sc until it is released. It reports false when the loader
// was closed while the attempt ran.
func (l *Loader) track(sc *scene.Scene) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.live[sc] = struct{}{}
	return true
}

func (l *Loader) forget(sc *scene.Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.live, sc)
}

// Future is the result of a load started with Go.
type Future struct {
	done  chan struct{}
	scene *scene.Scene
	err   error
}

// Done is closed when the load finishes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx is done. Giving up on ctx does
// not stop the load; its scene is still tracked by the Loader.
func (f *Future) Wait(ctx context.Context) (*scene.Scene, error) {
	select {
	case <-f.done:
		return f.scene, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
