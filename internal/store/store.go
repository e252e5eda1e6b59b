// Package store holds the read model that personal details screens observe.
//
// A Record is tracked only while someone is subscribed to it. Loading goes
// through the repository; updates made by this instance are applied directly,
// and updates made elsewhere arrive through a Notifier bridge as refreshes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// Record is the observable state of one user's private personal details.
type Record struct {
	Details   domain.PrivatePersonalDetails
	IsLoading bool
}

// Loader fetches stored details. storage.PersonalDetailsRepository satisfies it.
type Loader interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.PrivatePersonalDetails, error)
}

type subscription struct {
	id uint64
	fn func(Record)
}

// Store tracks records for subscribed users and fans out changes.
type Store struct {
	loader Loader
	logger *slog.Logger

	mu      sync.RWMutex
	records map[uuid.UUID]Record
	subs    map[uuid.UUID][]subscription
	nextID  uint64
}

func New(loader Loader, logger *slog.Logger) *Store {
	return &Store{
		loader:  loader,
		logger:  logger,
		records: make(map[uuid.UUID]Record),
		subs:    make(map[uuid.UUID][]subscription),
	}
}

// Get returns the current record. Users that were never loaded report IsLoading.
func (s *Store) Get(userID uuid.UUID) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordLocked(userID)
}

func (s *Store) recordLocked(userID uuid.UUID) Record {
	if r, ok := s.records[userID]; ok {
		return r
	}
	return Record{Details: domain.PrivatePersonalDetails{UserID: userID}, IsLoading: true}
}

// Tracked reports whether anyone is subscribed to userID.
func (s *Store) Tracked(userID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[userID]) > 0
}

// Load fetches the user's details and publishes them. Subscribers see a
// loading record first. On failure the previous values are kept and the
// loading flag is cleared.
func (s *Store) Load(ctx context.Context, userID uuid.UUID) (Record, error) {
	s.update(userID, func(r *Record) { r.IsLoading = true })

	details, err := s.loader.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		details, err = domain.EmptyDetails(userID), nil
	}
	if err != nil {
		rec := s.update(userID, func(r *Record) { r.IsLoading = false })
		return rec, fmt.Errorf("load personal details: %w", err)
	}

	rec := s.update(userID, func(r *Record) {
		r.IsLoading = false
		// A write applied while the read was in flight is newer than the read.
		if details.Version < r.Details.Version {
			return
		}
		r.Details = *details
	})
	return rec, nil
}

// Refresh reloads a user only if it is tracked.
func (s *Store) Refresh(ctx context.Context, userID uuid.UUID) error {
	if !s.Tracked(userID) {
		return nil
	}
	_, err := s.Load(ctx, userID)
	return err
}

// Apply publishes details written by this process. Untracked users are ignored.
func (s *Store) Apply(details domain.PrivatePersonalDetails) {
	if !s.Tracked(details.UserID) {
		return
	}
	s.update(details.UserID, func(r *Record) {
		// An older write landing late must not roll back a newer one.
		if details.Version != 0 && details.Version < r.Details.Version {
			return
		}
		r.Details = details
		r.IsLoading = false
	})
}

// Subscribe registers fn for changes to userID's record. The returned function
// unsubscribes; it is safe to call more than once. When the last subscriber
// leaves, the record is dropped.
func (s *Store) Subscribe(userID uuid.UUID, fn func(Record)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[userID] = append(s.subs[userID], subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(userID, id) })
	}
}

func (s *Store) unsubscribe(userID uuid.UUID, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[userID]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(s.subs, userID)
		delete(s.records, userID)
		return
	}
	s.subs[userID] = subs
}

// update mutates the record under lock, then notifies subscribers outside it.
func (s *Store) update(userID uuid.UUID, mutate func(*Record)) Record {
	s.mu.Lock()
	rec := s.recordLocked(userID)
	mutate(&rec)
	if len(s.subs[userID]) > 0 {
		s.records[userID] = rec
	}
	subs := append([]subscription(nil), s.subs[userID]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(rec)
	}
	return rec
}
