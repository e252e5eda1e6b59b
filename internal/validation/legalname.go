package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// DefaultLegalNamePattern accepts Latin-script letters and spaces. It matches
// the empty string so emptiness is reported as a missing value, not a bad character.
const DefaultLegalNamePattern = `^[\p{Latin} ]*$`

// DefaultNameMaxLength caps legal names, in runes, at the input layer.
const DefaultNameMaxLength = 50

// LegalNameValidator checks first and last legal names independently.
type LegalNameValidator struct {
	Pattern *regexp.Regexp
}

// NewLegalNameValidator compiles pattern, falling back to DefaultLegalNamePattern when empty.
func NewLegalNameValidator(pattern string) (*LegalNameValidator, error) {
	if pattern == "" {
		pattern = DefaultLegalNamePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile legal name pattern: %w", err)
	}
	if !re.MatchString("") {
		return nil, fmt.Errorf("legal name pattern %q must accept the empty string", pattern)
	}
	return &LegalNameValidator{Pattern: re}, nil
}

// IsValidLegalName reports whether every character of name is allowed.
func (v *LegalNameValidator) IsValidLegalName(name string) bool {
	return v.Pattern.MatchString(name)
}

// Validate returns zero, one or two entries keyed by legalFirstName / legalLastName.
func (v *LegalNameValidator) Validate(first, last string) ErrorMap {
	errs := ErrorMap{}
	if key := v.checkField(first); key != "" {
		errs[domain.FieldLegalFirstName] = key
	}
	if key := v.checkField(last); key != "" {
		errs[domain.FieldLegalLastName] = key
	}
	return errs
}

// The character test sees the raw value; the emptiness test sees it trimmed,
// since trimmed values are what gets stored.
func (v *LegalNameValidator) checkField(value string) string {
	switch {
	case !v.IsValidLegalName(value):
		return KeyHasInvalidCharacter
	case strings.TrimSpace(value) == "":
		return KeyFieldRequired
	}
	return ""
}

// Func adapts the validator for use in a Chain.
func (v *LegalNameValidator) Func() Func {
	return func(values Values) ErrorMap {
		return v.Validate(values[domain.FieldLegalFirstName], values[domain.FieldLegalLastName])
	}
}
