// Package request holds the input DTOs shared by the HTTP and gRPC transports
// and the length caps enforced on them before any form runs.
package request

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/mvaleed/privatedetails/internal/validation"
)

// DateOfBirth is the body of a date of birth update.
type DateOfBirth struct {
	DOB string `json:"dob" validate:"max=32"`
}

// LegalName is the body of a legal name update.
type LegalName struct {
	LegalFirstName string `json:"legalFirstName" validate:"namelen"`
	LegalLastName  string `json:"legalLastName" validate:"namelen"`
}

// Validator enforces input caps. Field ids in the result are the JSON names.
type Validator struct {
	v *validator.Validate
}

// NewValidator caps legal names at maxNameLength runes; zero or less uses
// validation.DefaultNameMaxLength.
func NewValidator(maxNameLength int) *Validator {
	if maxNameLength <= 0 {
		maxNameLength = validation.DefaultNameMaxLength
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("namelen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= maxNameLength
	})
	return &Validator{v: v}
}

// Check returns the fields that break a cap, keyed by field id.
func (v *Validator) Check(req any) validation.ErrorMap {
	errs := validation.ErrorMap{}

	err := v.v.Struct(req)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["body"] = validation.KeyFieldRequired
		return errs
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "namelen", "max":
			errs[fe.Field()] = validation.KeyCharacterLimitExceeded
		default:
			errs[fe.Field()] = fe.Tag()
		}
	}
	return errs
}

