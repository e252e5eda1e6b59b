package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/validation"
)

func TestSessionsSubmitLegalName(t *testing.T) {
	fx := newScreenFixture(t)
	sessions := NewSessions(fx.records, fx.actions, testValidators(t, 18, 150), nil)

	details, err := sessions.SubmitLegalName(context.Background(), fx.userID, " Jane ", "Doe ")
	require.NoError(t, err)
	assert.Equal(t, "Jane", details.LegalFirstName)
	assert.Equal(t, "Doe", details.LegalLastName)
	assert.Equal(t, 1, details.Version)
	assert.False(t, fx.records.Tracked(fx.userID))
}

func TestSessionsKeepOtherFields(t *testing.T) {
	fx := newScreenFixture(t)
	_, err := fx.repo.UpdateLegalName(context.Background(), fx.userID, "Jane", "Doe")
	require.NoError(t, err)
	sessions := NewSessions(fx.records, fx.actions, testValidators(t, 18, 150), nil)

	details, err := sessions.SubmitDateOfBirth(context.Background(), fx.userID, "1990-05-01")
	require.NoError(t, err)
	assert.Equal(t, "1990-05-01", details.DateOfBirth)
	assert.Equal(t, "Jane", details.LegalFirstName)
}

func TestSessionsReturnValidationErrors(t *testing.T) {
	fx := newScreenFixture(t)
	sessions := NewSessions(fx.records, fx.actions, testValidators(t, 18, 150), nil)

	_, err := sessions.SubmitDateOfBirth(context.Background(), fx.userID, "2020-01-01")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{domain.FieldDateOfBirth: validation.KeyDateShouldBeBefore}, verrs.Fields())
	assert.Zero(t, fx.actions.callCount())
}

func TestSessionsWrapSubmissionErrors(t *testing.T) {
	fx := newScreenFixture(t)
	boom := errors.New("db down")
	fx.actions.err = boom
	sessions := NewSessions(fx.records, fx.actions, testValidators(t, 18, 150), nil)

	_, err := sessions.SubmitLegalName(context.Background(), fx.userID, "Jane", "Doe")
	require.ErrorIs(t, err, boom)
	assert.False(t, fx.records.Tracked(fx.userID))
}

func TestSessionsSubmitRequestValueDespiteConcurrentChange(t *testing.T) {
	fx := newScreenFixture(t)
	ctx := context.Background()

	// Another writer changes the date of birth after the session is ready
	// but before the submission reaches the repository.
	validators := testValidators(t, 18, 150)
	var once sync.Once
	validators.Now = func() time.Time {
		once.Do(func() {
			d, err := fx.repo.UpdateDateOfBirth(ctx, fx.userID, "1970-01-01")
			require.NoError(t, err)
			fx.records.Apply(*d)
		})
		return fixedToday
	}
	sessions := NewSessions(fx.records, fx.actions, validators, nil)

	details, err := sessions.SubmitDateOfBirth(ctx, fx.userID, "1990-05-01")
	require.NoError(t, err)
	assert.Equal(t, "1990-05-01", details.DateOfBirth)
	assert.Equal(t, 2, details.Version)

	saved, err := fx.repo.Get(ctx, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, "1990-05-01", saved.DateOfBirth)
	assert.Equal(t, "1990-05-01", fx.records.Get(fx.userID).Details.DateOfBirth)
}

// racingActions forwards the write and then lets another writer change the
// same record before the caller sees the result.
type racingActions struct {
	next  Actions
	after func(ctx context.Context, userID uuid.UUID)
}

func (a racingActions) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	d, err := a.next.UpdateDateOfBirth(ctx, userID, dob)
	if err == nil {
		a.after(ctx, userID)
	}
	return d, err
}

func (a racingActions) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	d, err := a.next.UpdateLegalName(ctx, userID, first, last)
	if err == nil {
		a.after(ctx, userID)
	}
	return d, err
}

func TestSessionsReturnTheirOwnWrite(t *testing.T) {
	fx := newScreenFixture(t)
	actions := racingActions{
		next: fx.actions,
		after: func(ctx context.Context, userID uuid.UUID) {
			d, err := fx.repo.UpdateLegalName(ctx, userID, "Other", "Writer")
			require.NoError(t, err)
			fx.records.Apply(*d)
		},
	}
	sessions := NewSessions(fx.records, actions, testValidators(t, 18, 150), nil)

	details, err := sessions.SubmitDateOfBirth(context.Background(), fx.userID, "1990-05-01")
	require.NoError(t, err)
	assert.Equal(t, "1990-05-01", details.DateOfBirth)
	assert.Equal(t, 1, details.Version)
	assert.Empty(t, details.LegalFirstName)

	assert.Equal(t, 2, fx.records.Get(fx.userID).Details.Version)
}

func TestSessionsLegalNameReturnsOwnWrite(t *testing.T) {
	fx := newScreenFixture(t)
	actions := racingActions{
		next: fx.actions,
		after: func(ctx context.Context, userID uuid.UUID) {
			d, err := fx.repo.UpdateDateOfBirth(ctx, userID, "1970-01-01")
			require.NoError(t, err)
			fx.records.Apply(*d)
		},
	}
	sessions := NewSessions(fx.records, actions, testValidators(t, 18, 150), nil)

	details, err := sessions.SubmitLegalName(context.Background(), fx.userID, "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane", details.LegalFirstName)
	assert.Equal(t, 1, details.Version)
	assert.Empty(t, details.DateOfBirth)
}
