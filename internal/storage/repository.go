// Package storage defines the repository interfaces for data persistence.
//
// These interfaces allow the business logic to remain independent of the
// storage implementation. PostgreSQL backs production; the memory package
// backs local development and tests.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// PersonalDetailsRepository defines the operations for private personal details persistence.
type PersonalDetailsRepository interface {
	// Get retrieves the details stored for a user. Returns ErrNotFound if nothing is stored yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.PrivatePersonalDetails, error)

	// UpdateDateOfBirth creates or updates the user's date of birth and returns the stored record.
	UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error)

	// UpdateLegalName creates or updates the user's legal name and returns the stored record.
	UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error)

	// RecordChange appends an entry to the change history.
	RecordChange(ctx context.Context, change domain.DetailsChange) error

	// ListChanges returns a user's change history, newest first.
	ListChanges(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DetailsChange, error)
}

// Repositories bundles all repositories together.
type Repositories struct {
	PersonalDetails PersonalDetailsRepository
}

// Transactor provides transaction support for operations that need atomicity.
type Transactor interface {
	// WithTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
