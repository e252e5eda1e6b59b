// Package service contains the business logic layer.
// Services orchestrate operations across repositories, handle transactions,
// and publish events. They do not know about HTTP, gRPC, or transport details.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/event"
	"github.com/mvaleed/privatedetails/internal/metrics"
	"github.com/mvaleed/privatedetails/internal/storage"
	"github.com/mvaleed/privatedetails/internal/store"
)

// PersonalDetailsService persists private personal details. It expects values
// that already passed form validation and stores them as given.
type PersonalDetailsService struct {
	details   storage.PersonalDetailsRepository
	tx        storage.Transactor
	records   *store.Store
	notifier  store.Notifier
	publisher event.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewPersonalDetailsService(
	details storage.PersonalDetailsRepository,
	tx storage.Transactor,
	records *store.Store,
	notifier store.Notifier,
	publisher event.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PersonalDetailsService {
	return &PersonalDetailsService{
		details:   details,
		tx:        tx,
		records:   records,
		notifier:  notifier,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// GetPrivatePersonalDetails returns the stored details, or an empty record for
// a user that has not saved anything yet.
func (s *PersonalDetailsService) GetPrivatePersonalDetails(ctx context.Context, userID uuid.UUID) (*domain.PrivatePersonalDetails, error) {
	d, err := s.details.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyDetails(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListChanges returns the user's change history, newest first.
func (s *PersonalDetailsService) ListChanges(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DetailsChange, error) {
	return s.details.ListChanges(ctx, userID, limit)
}

// UpdateDateOfBirth stores dob unchanged.
func (s *PersonalDetailsService) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	defer s.metrics.ObserveUpdate("update_dob", time.Now())

	var updated *domain.PrivatePersonalDetails
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		d, err := s.details.UpdateDateOfBirth(ctx, userID, dob)
		if err != nil {
			return err
		}
		updated = d
		return s.details.RecordChange(ctx, domain.NewDetailsChange(userID, domain.ChangeSetDateOfBirth))
	})
	if err != nil {
		return nil, err
	}

	s.afterUpdate(ctx, updated, domain.DateOfBirthUpdatedEvent(updated))
	return updated, nil
}

// UpdateLegalName stores both name parts as given.
func (s *PersonalDetailsService) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	defer s.metrics.ObserveUpdate("update_legal_name", time.Now())

	var updated *domain.PrivatePersonalDetails
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		d, err := s.details.UpdateLegalName(ctx, userID, first, last)
		if err != nil {
			return err
		}
		updated = d
		return s.details.RecordChange(ctx, domain.NewDetailsChange(userID, domain.ChangeSetLegalName))
	})
	if err != nil {
		return nil, err
	}

	s.afterUpdate(ctx, updated, domain.LegalNameUpdatedEvent(updated))
	return updated, nil
}

// afterUpdate fans the committed record out. Failures here do not undo the write.
func (s *PersonalDetailsService) afterUpdate(ctx context.Context, d *domain.PrivatePersonalDetails, e domain.Event) {
	s.records.Apply(*d)

	if err := s.notifier.Notify(ctx, d.UserID); err != nil {
		s.logger.Warn("change notification failed",
			slog.String("user_id", d.UserID.String()),
			slog.String("error", err.Error()),
		)
	}

	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed",
			slog.String("event_type", e.Type),
			slog.String("user_id", d.UserID.String()),
			slog.String("error", err.Error()),
		)
	}
}
