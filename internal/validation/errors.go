// Package validation holds the field-level rule sets for private personal details.
//
// Validators are pure: they never read the wall clock or any shared state.
// Every call builds a fresh ErrorMap keyed by field id; an empty map means valid.
package validation

import (
	"sort"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// Message keys surfaced in error maps. Rendering them is a client concern.
const (
	KeyFieldRequired          = "common.error.fieldRequired"
	KeyDateInvalid            = "common.error.dateInvalid"
	KeyCharacterLimitExceeded = "common.error.characterLimitExceeded"
	KeyHasInvalidCharacter    = "privatePersonalDetails.error.hasInvalidCharacter"
	KeyDateShouldBeBefore     = "privatePersonalDetails.error.dateShouldBeBefore"
	KeyDateShouldBeAfter      = "privatePersonalDetails.error.dateShouldBeAfter"
)

// ErrorMap maps a field id to the message key explaining why it is invalid.
type ErrorMap map[string]string

// Valid reports whether no field carries an error.
func (m ErrorMap) Valid() bool {
	return len(m) == 0
}

// Merge copies other into m. Entries in other win for fields present in both.
func (m ErrorMap) Merge(other ErrorMap) {
	for field, key := range other {
		m[field] = key
	}
}

// Err converts the map into domain.ValidationErrors ordered by field, or nil when valid.
func (m ErrorMap) Err() error {
	if m.Valid() {
		return nil
	}
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	errs := make(domain.ValidationErrors, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, domain.ValidationError{Field: field, Message: m[field]})
	}
	return errs
}
