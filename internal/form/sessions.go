package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/store"
	"github.com/mvaleed/privatedetails/internal/validation"
)

// LoadingSource is a RecordSource that can also be told to load a record.
// *store.Store satisfies it.
type LoadingSource interface {
	RecordSource
	Load(ctx context.Context, userID uuid.UUID) (store.Record, error)
}

// Sessions runs one screen per request for the request/response transports:
// open, wait for the record, submit the request's values, close.
//
// The request's values go to the form as given. They are never entered into
// the screen's fields, which re-sync when another writer changes the record.
type Sessions struct {
	records    LoadingSource
	actions    Actions
	validators Validators
	observer   Observer
}

func NewSessions(records LoadingSource, actions Actions, validators Validators, observer Observer) *Sessions {
	return &Sessions{
		records:    records,
		actions:    actions,
		validators: validators,
		observer:   observer,
	}
}

var stayNavigator = NavigatorFunc(func(string) {})

// SubmitDateOfBirth runs the date of birth form for userID and returns the
// record the write produced. Validation failures come back as
// domain.ValidationErrors.
func (s *Sessions) SubmitDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	saved := &savedActions{Actions: s.actions}
	f := NewDateOfBirthForm(s.validators, saved, userID, s.observer)
	screen := OpenDateOfBirthScreen(s.records, userID, f, stayNavigator)
	defer screen.Close()

	return s.run(ctx, &screen.session, userID, saved, validation.Values{
		domain.FieldDateOfBirth: dob,
	})
}

// SubmitLegalName runs the legal name form for userID.
func (s *Sessions) SubmitLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	saved := &savedActions{Actions: s.actions}
	f := NewLegalNameForm(s.validators, saved, userID, s.observer)
	screen := OpenLegalNameScreen(s.records, userID, f, stayNavigator)
	defer screen.Close()

	return s.run(ctx, &screen.session, userID, saved, validation.Values{
		domain.FieldLegalFirstName: first,
		domain.FieldLegalLastName:  last,
	})
}

func (s *Sessions) run(ctx context.Context, sess *session, userID uuid.UUID, saved *savedActions, values validation.Values) (*domain.PrivatePersonalDetails, error) {
	if err := s.ready(ctx, sess, userID); err != nil {
		return nil, err
	}

	errs, err := sess.submit(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("submit personal details: %w", err)
	}
	if verr := errs.Err(); verr != nil {
		return nil, verr
	}
	return saved.result(), nil
}

func (s *Sessions) ready(ctx context.Context, sess *session, userID uuid.UUID) error {
	if !sess.Loading() {
		return nil
	}
	if _, err := s.records.Load(ctx, userID); err != nil {
		return err
	}
	if sess.Loading() {
		return domain.ErrNotReady
	}
	return nil
}

// savedActions keeps the record returned by the last successful write, which
// is the response even if another writer has changed the store since.
type savedActions struct {
	Actions

	mu    sync.Mutex
	saved *domain.PrivatePersonalDetails
}

func (a *savedActions) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	return a.keep(a.Actions.UpdateDateOfBirth(ctx, userID, dob))
}

func (a *savedActions) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	return a.keep(a.Actions.UpdateLegalName(ctx, userID, first, last))
}

func (a *savedActions) keep(d *domain.PrivatePersonalDetails, err error) (*domain.PrivatePersonalDetails, error) {
	if err == nil {
		a.mu.Lock()
		a.saved = d
		a.mu.Unlock()
	}
	return d, err
}

func (a *savedActions) result() *domain.PrivatePersonalDetails {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved
}
