package form

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/store"
	"github.com/mvaleed/privatedetails/internal/validation"
)

// RoutePersonalDetails is where both screens return to.
const RoutePersonalDetails = "settings/profile/personal-details"

// RecordSource is the observable profile record. *store.Store satisfies it.
type RecordSource interface {
	Get(userID uuid.UUID) store.Record
	Subscribe(userID uuid.UUID, fn func(store.Record)) (unsubscribe func())
}

// Navigator moves the client between screens.
type Navigator interface {
	GoBack(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) GoBack(route string) { f(route) }

// session is the part both screens share: subscription lifetime, loading
// state and the last record values seen, which decide when to re-sync.
type session struct {
	mu      sync.Mutex
	loading bool
	synced  bool
	seen    domain.PrivatePersonalDetails

	// changed reports whether the screen's own fields differ between records;
	// reset copies them into the screen. Both run under mu.
	changed func(prev, next domain.PrivatePersonalDetails) bool
	reset   func(domain.PrivatePersonalDetails)

	unsubscribe func()
	closeOnce   sync.Once
	form        *Form
	nav         Navigator
}

// open subscribes before reading the current record so no change is missed.
func (s *session) open(src RecordSource, userID uuid.UUID) {
	s.unsubscribe = src.Subscribe(userID, s.observe)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.synced {
		s.apply(src.Get(userID))
	}
}

func (s *session) observe(r store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(r)
}

// The first loaded record always fills the fields; later ones only when the
// screen's own fields changed, so unrelated updates keep in-progress edits.
func (s *session) apply(r store.Record) {
	s.loading = r.IsLoading
	if r.IsLoading {
		return
	}
	if !s.synced || s.changed(s.seen, r.Details) {
		s.seen = r.Details
		s.reset(r.Details)
	}
	s.synced = true
}

// Loading reports whether the record is still loading. Clients show only a
// loading indicator while it is true.
func (s *session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Close ends the subscription. It is safe to call more than once.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

// Back closes the screen and returns to the personal details overview.
func (s *session) Back() {
	s.Close()
	s.nav.GoBack(RoutePersonalDetails)
}

// submit must be called without s.mu held: a successful submission updates
// the store, which notifies this screen synchronously.
func (s *session) submit(ctx context.Context, values validation.Values) (validation.ErrorMap, error) {
	return s.form.Submit(ctx, values)
}

// DateOfBirthScreen is a server-side session of the date of birth form.
type DateOfBirthScreen struct {
	session
	dob string
}

// OpenDateOfBirthScreen starts a session pre-filled from the user's record.
func OpenDateOfBirthScreen(src RecordSource, userID uuid.UUID, f *Form, nav Navigator) *DateOfBirthScreen {
	s := &DateOfBirthScreen{session: session{form: f, nav: nav}}
	s.changed = func(prev, next domain.PrivatePersonalDetails) bool {
		return prev.DateOfBirth != next.DateOfBirth
	}
	s.reset = func(d domain.PrivatePersonalDetails) {
		s.dob = d.DateOfBirth
	}
	s.open(src, userID)
	return s
}

// DateOfBirth returns the current field value.
func (s *DateOfBirthScreen) DateOfBirth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dob
}

// SetDateOfBirth records a user edit.
func (s *DateOfBirthScreen) SetDateOfBirth(dob string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dob = dob
}

// Submit validates and saves the current value. Field state is left as entered
// whatever the outcome; only a later record change re-syncs it.
func (s *DateOfBirthScreen) Submit(ctx context.Context) (validation.ErrorMap, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	values := validation.Values{domain.FieldDateOfBirth: s.dob}
	s.mu.Unlock()

	return s.submit(ctx, values)
}

// LegalNameScreen is a server-side session of the legal name form.
type LegalNameScreen struct {
	session
	first string
	last  string
}

// OpenLegalNameScreen starts a session pre-filled from the user's record.
func OpenLegalNameScreen(src RecordSource, userID uuid.UUID, f *Form, nav Navigator) *LegalNameScreen {
	s := &LegalNameScreen{session: session{form: f, nav: nav}}
	s.changed = func(prev, next domain.PrivatePersonalDetails) bool {
		return prev.LegalFirstName != next.LegalFirstName || prev.LegalLastName != next.LegalLastName
	}
	s.reset = func(d domain.PrivatePersonalDetails) {
		s.first = d.LegalFirstName
		s.last = d.LegalLastName
	}
	s.open(src, userID)
	return s
}

// LegalName returns the current field values.
func (s *LegalNameScreen) LegalName() (first, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.first, s.last
}

// SetLegalFirstName replaces the first name field.
func (s *LegalNameScreen) SetLegalFirstName(first string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.first = first
}

// SetLegalLastName replaces the last name field.
func (s *LegalNameScreen) SetLegalLastName(last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = last
}

// Submit validates and saves the current values.
func (s *LegalNameScreen) Submit(ctx context.Context) (validation.ErrorMap, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	values := validation.Values{
		domain.FieldLegalFirstName: s.first,
		domain.FieldLegalLastName:  s.last,
	}
	s.mu.Unlock()

	return s.submit(ctx, values)
}
