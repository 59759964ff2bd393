// Package live keeps in-memory views of store collections current. A view
// loads its first snapshot in the background and reloads on every change
// notification from the store.
package live

import (
	"context"
	"errors"
	"sync"

	"blakwhyte-backend/store"

	"go.uber.org/zap"
)

// Source is the part of the store a live view depends on.
type Source interface {
	Watch(collection string, fn store.WatchFunc) (func(), error)
	Version(collection string) uint64
}

// Loader reads a whole collection.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Snapshot is an immutable copy of a collection at a change version. A new
// pointer means new contents.
type Snapshot[T any] struct {
	Version uint64
	Docs    []T
}

type Query[T any] struct {
	collection string
	src        Source
	load       Loader[T]
	log        *zap.Logger

	mu       sync.RWMutex
	snap     *Snapshot[T]
	err      error
	loaded   bool
	onChange func()

	ready     chan struct{}
	readyOnce sync.Once
	cancel    func()
	ctx       context.Context
	stop      context.CancelFunc
}

func NewQuery[T any](src Source, collection string, load Loader[T], log *zap.Logger) *Query[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Query[T]{
		collection: collection,
		src:        src,
		load:       load,
		log:        log,
		ready:      make(chan struct{}),
	}
}

// OnChange sets a callback run after every applied reload. It must be set
// before Start.
func (q *Query[T]) OnChange(fn func()) {
	q.onChange = fn
}

// Start subscribes to the collection and begins the first load. If the
// source is not ready the query stays loading.
func (q *Query[T]) Start() {
	q.ctx, q.stop = context.WithCancel(context.Background())
	if q.src == nil {
		return
	}
	cancel, err := q.src.Watch(q.collection, func(version uint64) {
		q.reload(q.ctx, version)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotReady) {
			q.fail(err)
		}
		return
	}
	q.cancel = cancel

	go q.reload(q.ctx, q.src.Version(q.collection))
}

// Close unsubscribes. The last snapshot stays readable.
func (q *Query[T]) Close() {
	if q.cancel != nil {
		q.cancel()
	}
	if q.stop != nil {
		q.stop()
	}
}

func (q *Query[T]) reload(ctx context.Context, version uint64) {
	docs, err := q.load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotReady) || ctx.Err() != nil {
			return
		}
		q.log.Warn("live query load failed", zap.String("collection", q.collection), zap.Error(err))
		q.fail(err)
		return
	}

	q.mu.Lock()
	// an older load finishing late must not replace a newer snapshot
	if q.snap != nil && version <= q.snap.Version {
		q.mu.Unlock()
		return
	}
	q.snap = &Snapshot[T]{Version: version, Docs: docs}
	q.err = nil
	q.loaded = true
	q.mu.Unlock()

	q.markReady()
	if q.onChange != nil {
		q.onChange()
	}
}

func (q *Query[T]) fail(err error) {
	q.mu.Lock()
	q.err = err
	q.mu.Unlock()
	q.markReady()
	if q.onChange != nil {
		q.onChange()
	}
}

func (q *Query[T]) markReady() {
	q.readyOnce.Do(func() { close(q.ready) })
}

// Current returns the latest snapshot. loading is true until the first
// load has completed.
func (q *Query[T]) Current() (snap *Snapshot[T], loading bool, err error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snap, !q.loaded, q.err
}

// Ready is closed once the first load has succeeded or failed.
func (q *Query[T]) Ready() <-chan struct{} {
	return q.ready
}
