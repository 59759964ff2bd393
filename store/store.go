// Package store is the document store behind the booking site. Reads are
// typed per collection; every committed write bumps the collection's change
// version and notifies its watchers before the write returns.
package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Collection names.
const (
	Bookings      = "bookings"
	Services      = "services"
	Users         = "users"
	Products      = "products"
	Gallery       = "gallery"
	Accounts      = "accounts"
	Notifications = "notifications"
)

var (
	// ErrNotReady means the store has no database behind it.
	ErrNotReady = errors.New("store not ready")
	ErrNotFound = errors.New("document not found")
)

// WatchFunc is called with the collection's new version after a change.
type WatchFunc func(version uint64)

type watcher struct {
	id int
	fn WatchFunc
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger

	mu       sync.Mutex
	versions map[string]uint64
	watchers map[string][]watcher
	nextID   int
}

// New wraps db. A nil db yields a store whose operations fail with
// ErrNotReady.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:       db,
		log:      log,
		versions: make(map[string]uint64),
		watchers: make(map[string][]watcher),
	}
}

func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	return s.db.WithContext(ctx), nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Ready() {
		return ErrNotReady
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Version returns the current change version of collection.
func (s *Store) Version(collection string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[collection]
}

// Watch registers fn for changes to collection. The returned cancel func
// is idempotent.
func (s *Store) Watch(collection string, fn WatchFunc) (func(), error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers[collection] = append(s.watchers[collection], watcher{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.watchers[collection]
			for i, w := range list {
				if w.id == id {
					s.watchers[collection] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}, nil
}

// notify bumps the versions of the given collections and runs their
// watchers on the calling goroutine.
func (s *Store) notify(collections ...string) {
	for _, collection := range collections {
		s.mu.Lock()
		s.versions[collection]++
		version := s.versions[collection]
		list := make([]watcher, len(s.watchers[collection]))
		copy(list, s.watchers[collection])
		s.mu.Unlock()

		for _, w := range list {
			s.dispatch(collection, version, w)
		}
	}
}

func (s *Store) dispatch(collection string, version uint64, w watcher) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("store watcher panicked",
				zap.String("collection", collection), zap.Any("panic", r))
		}
	}()
	w.fn(version)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
