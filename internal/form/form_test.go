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

var fixedToday = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

type updateCall struct {
	userID uuid.UUID
	args   []string
}

// fakeActions records calls and optionally forwards them to next.
type fakeActions struct {
	mu    sync.Mutex
	calls []updateCall
	err   error
	next  Actions
}

func (f *fakeActions) record(userID uuid.UUID, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, updateCall{userID: userID, args: args})
}

func (f *fakeActions) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	f.record(userID, dob)
	if f.err != nil {
		return nil, f.err
	}
	if f.next != nil {
		return f.next.UpdateDateOfBirth(ctx, userID, dob)
	}
	return &domain.PrivatePersonalDetails{UserID: userID, DateOfBirth: dob}, nil
}

func (f *fakeActions) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	f.record(userID, first, last)
	if f.err != nil {
		return nil, f.err
	}
	if f.next != nil {
		return f.next.UpdateLegalName(ctx, userID, first, last)
	}
	return &domain.PrivatePersonalDetails{UserID: userID, LegalFirstName: first, LegalLastName: last}, nil
}

func (f *fakeActions) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeObserver struct {
	invalid   []validation.ErrorMap
	submitted []error
}

func (o *fakeObserver) ValidationFailed(form string, errs map[string]string) {
	o.invalid = append(o.invalid, errs)
}

func (o *fakeObserver) Submitted(form string, err error) {
	o.submitted = append(o.submitted, err)
}

func testValidators(t *testing.T, minAge, maxAge int) Validators {
	t.Helper()
	names, err := validation.NewLegalNameValidator("")
	require.NoError(t, err)
	return Validators{
		Date:      validation.NewDateValidator(minAge, maxAge),
		LegalName: names,
		Now:       func() time.Time { return fixedToday },
	}
}

func TestSubmitLegalNameTrimsBeforeForwarding(t *testing.T) {
	actions := &fakeActions{}
	userID := uuid.New()
	f := NewLegalNameForm(testValidators(t, 18, 150), actions, userID, nil)

	errs, err := f.Submit(context.Background(), validation.Values{
		domain.FieldLegalFirstName: "  Jane  ",
		domain.FieldLegalLastName:  " Doe ",
	})
	require.NoError(t, err)
	assert.Empty(t, errs)

	require.Len(t, actions.calls, 1)
	assert.Equal(t, userID, actions.calls[0].userID)
	assert.Equal(t, []string{"Jane", "Doe"}, actions.calls[0].args)
}

func TestSubmitDateOfBirthForwardsUnchanged(t *testing.T) {
	actions := &fakeActions{}
	f := NewDateOfBirthForm(testValidators(t, 18, 150), actions, uuid.New(), nil)

	errs, err := f.Submit(context.Background(), validation.Values{domain.FieldDateOfBirth: "1990-05-01"})
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, actions.calls, 1)
	assert.Equal(t, []string{"1990-05-01"}, actions.calls[0].args)
}

func TestInvalidValuesAreNotSubmitted(t *testing.T) {
	actions := &fakeActions{}
	observer := &fakeObserver{}
	f := NewLegalNameForm(testValidators(t, 18, 150), actions, uuid.New(), observer)

	errs, err := f.Submit(context.Background(), validation.Values{
		domain.FieldLegalFirstName: "",
		domain.FieldLegalLastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, validation.ErrorMap{domain.FieldLegalFirstName: validation.KeyFieldRequired}, errs)
	assert.Zero(t, actions.callCount())
	require.Len(t, observer.invalid, 1)
	assert.Empty(t, observer.submitted)
}

func TestSubmissionErrorIsReturned(t *testing.T) {
	actions := &fakeActions{err: errors.New("db down")}
	observer := &fakeObserver{}
	f := NewDateOfBirthForm(testValidators(t, 18, 150), actions, uuid.New(), observer)

	errs, err := f.Submit(context.Background(), validation.Values{domain.FieldDateOfBirth: "1990-05-01"})
	require.Error(t, err)
	assert.Empty(t, errs)
	require.Len(t, observer.submitted, 1)
	assert.Error(t, observer.submitted[0])
}

func TestFormMergesChainInOrder(t *testing.T) {
	submitted := false
	f := New("test", validation.Chain{
		func(validation.Values) validation.ErrorMap { return validation.ErrorMap{"a": "first"} },
		func(validation.Values) validation.ErrorMap { return validation.ErrorMap{"a": "second", "b": "x"} },
	}, func(context.Context, validation.Values) error {
		submitted = true
		return nil
	}, nil)

	errs, err := f.Submit(context.Background(), validation.Values{})
	require.NoError(t, err)
	assert.Equal(t, validation.ErrorMap{"a": "second", "b": "x"}, errs)
	assert.False(t, submitted)
	assert.Equal(t, "test", f.ID())
}
