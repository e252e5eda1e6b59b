// Package form runs the personal details forms: validate the entered values,
// and only when every field passes, hand them to the submission adapter.
package form

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/validation"
)

// Form ids, also used as metric labels.
const (
	DateOfBirthFormID = "date_of_birth_form"
	LegalNameFormID   = "legal_name_form"
)

// Observer is told about every submission attempt.
type Observer interface {
	ValidationFailed(form string, errs map[string]string)
	Submitted(form string, err error)
}

type nopObserver struct{}

func (nopObserver) ValidationFailed(string, map[string]string) {}
func (nopObserver) Submitted(string, error)                    {}

// SubmitFunc forwards validated values to persistence.
type SubmitFunc func(ctx context.Context, values validation.Values) error

// Form pairs a validator chain with a submission adapter.
type Form struct {
	id       string
	chain    validation.Chain
	submit   SubmitFunc
	observer Observer
}

// New builds a form. A nil observer is allowed.
func New(id string, chain validation.Chain, submit SubmitFunc, observer Observer) *Form {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Form{
		id:       id,
		chain:    chain,
		submit:   submit,
		observer: observer,
	}
}

// ID returns the form id.
func (f *Form) ID() string {
	return f.id
}

// Validate runs the chain without submitting.
func (f *Form) Validate(values validation.Values) validation.ErrorMap {
	return f.chain.Validate(values)
}

// Submit validates values and, if they are valid, submits them. A non-empty
// error map means nothing was submitted; the error is the submission's own.
func (f *Form) Submit(ctx context.Context, values validation.Values) (validation.ErrorMap, error) {
	errs := f.chain.Validate(values)
	if !errs.Valid() {
		f.observer.ValidationFailed(f.id, errs)
		return errs, nil
	}

	err := f.submit(ctx, values)
	f.observer.Submitted(f.id, err)
	return errs, err
}

// Actions is the persistence collaborator the adapters forward to.
type Actions interface {
	UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error)
	UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error)
}

// SubmitDateOfBirth forwards the date of birth unchanged.
func SubmitDateOfBirth(actions Actions, userID uuid.UUID) SubmitFunc {
	return func(ctx context.Context, values validation.Values) error {
		_, err := actions.UpdateDateOfBirth(ctx, userID, values[domain.FieldDateOfBirth])
		return err
	}
}

// SubmitLegalName trims both names before forwarding them.
func SubmitLegalName(actions Actions, userID uuid.UUID) SubmitFunc {
	return func(ctx context.Context, values validation.Values) error {
		_, err := actions.UpdateLegalName(ctx, userID,
			strings.TrimSpace(values[domain.FieldLegalFirstName]),
			strings.TrimSpace(values[domain.FieldLegalLastName]),
		)
		return err
	}
}

// Validators carries the configured rule sets and the clock the date rule reads.
type Validators struct {
	Date      *validation.DateValidator
	LegalName *validation.LegalNameValidator
	Now       func() time.Time
}

// NewDateOfBirthForm builds the date of birth form for one user.
func NewDateOfBirthForm(v Validators, actions Actions, userID uuid.UUID, observer Observer) *Form {
	now := v.Now
	if now == nil {
		now = time.Now
	}
	return New(DateOfBirthFormID,
		validation.Chain{v.Date.Func(now)},
		SubmitDateOfBirth(actions, userID),
		observer,
	)
}

// NewLegalNameForm builds the legal name form for one user.
func NewLegalNameForm(v Validators, actions Actions, userID uuid.UUID, observer Observer) *Form {
	return New(LegalNameFormID,
		validation.Chain{v.LegalName.Func()},
		SubmitLegalName(actions, userID),
		observer,
	)
}
