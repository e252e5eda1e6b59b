// Package memory implements the storage interfaces in process memory.
// It backs local development when no database is configured, and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/storage"
)

// Store keeps personal details and their history in maps.
type Store struct {
	mu      sync.RWMutex
	details map[uuid.UUID]domain.PrivatePersonalDetails
	history map[uuid.UUID][]domain.DetailsChange
}

func New() *Store {
	return &Store{
		details: make(map[uuid.UUID]domain.PrivatePersonalDetails),
		history: make(map[uuid.UUID][]domain.DetailsChange),
	}
}

// Repositories returns the repositories backed by this store.
func (s *Store) Repositories() *storage.Repositories {
	return &storage.Repositories{PersonalDetails: s}
}

// WithTransaction runs fn directly. Writes are not rolled back on error.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*domain.PrivatePersonalDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.details[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (s *Store) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	return s.upsert(userID, func(d *domain.PrivatePersonalDetails) {
		d.DateOfBirth = dob
	})
}

func (s *Store) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	return s.upsert(userID, func(d *domain.PrivatePersonalDetails) {
		d.LegalFirstName = first
		d.LegalLastName = last
	})
}

func (s *Store) upsert(userID uuid.UUID, apply func(*domain.PrivatePersonalDetails)) (*domain.PrivatePersonalDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.details[userID]
	if !ok {
		d = domain.PrivatePersonalDetails{UserID: userID}
	}
	apply(&d)
	d.UpdatedAt = time.Now().UTC()
	d.Version++
	s.details[userID] = d

	out := d
	return &out, nil
}

func (s *Store) RecordChange(ctx context.Context, change domain.DetailsChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[change.UserID] = append(s.history[change.UserID], change)
	return nil
}

func (s *Store) ListChanges(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DetailsChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	changes := append([]domain.DetailsChange(nil), s.history[userID]...)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].ChangedAt.After(changes[j].ChangedAt)
	})
	if len(changes) > limit {
		changes = changes[:limit]
	}
	return changes, nil
}
