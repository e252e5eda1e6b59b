package validation

import (
	"time"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// Defaults for the age window, in whole years.
const (
	DefaultMinAge = 5
	DefaultMaxAge = 150
)

// Dates further than this from today are rejected as structurally invalid.
const plausibleYears = 1000

// AgePolicy decides whether a date of birth satisfies the age window and which
// message key to surface when it does not. An empty result means no error.
type AgePolicy interface {
	AgeRequirementError(dob string, today time.Time, minAge, maxAge int) string
}

// AgePolicyFunc adapts a function to AgePolicy.
type AgePolicyFunc func(dob string, today time.Time, minAge, maxAge int) string

func (f AgePolicyFunc) AgeRequirementError(dob string, today time.Time, minAge, maxAge int) string {
	return f(dob, today, minAge, maxAge)
}

// DefaultAgePolicy distinguishes dates that are too recent from dates that are too old.
// Unparseable input yields KeyDateInvalid.
var DefaultAgePolicy AgePolicy = AgePolicyFunc(defaultAgeRequirementError)

func defaultAgeRequirementError(dob string, today time.Time, minAge, maxAge int) string {
	date, ok := ParseDate(dob)
	if !ok {
		return KeyDateInvalid
	}
	earliest, latest := AgeWindow(today, minAge, maxAge)
	switch {
	case !date.Before(earliest) && !date.After(latest):
		return ""
	case date.After(latest):
		return KeyDateShouldBeBefore
	default:
		return KeyDateShouldBeAfter
	}
}

// DateValidator checks a date of birth for presence, shape and age-window membership.
type DateValidator struct {
	MinAge int
	MaxAge int
	Policy AgePolicy
}

// NewDateValidator returns a validator using DefaultAgePolicy.
func NewDateValidator(minAge, maxAge int) *DateValidator {
	return &DateValidator{
		MinAge: minAge,
		MaxAge: maxAge,
		Policy: DefaultAgePolicy,
	}
}

// Validate returns at most one entry, for the dob field. The age rule always runs
// and its message replaces the presence message when both fire.
func (v *DateValidator) Validate(dob string, today time.Time) ErrorMap {
	errs := ErrorMap{}

	if dob == "" || !IsValidDate(dob, today) {
		errs[domain.FieldDateOfBirth] = KeyFieldRequired
	}

	policy := v.Policy
	if policy == nil {
		policy = DefaultAgePolicy
	}
	if key := policy.AgeRequirementError(dob, today, v.MinAge, v.MaxAge); key != "" {
		errs[domain.FieldDateOfBirth] = key
	}

	return errs
}

// Bounds returns the earliest and latest acceptable birth dates for today.
func (v *DateValidator) Bounds(today time.Time) (earliest, latest time.Time) {
	return AgeWindow(today, v.MinAge, v.MaxAge)
}

// Func binds the validator to a clock for use in a Chain.
func (v *DateValidator) Func(now func() time.Time) Func {
	return func(values Values) ErrorMap {
		return v.Validate(values[domain.FieldDateOfBirth], now())
	}
}

// AgeWindow returns [today-maxAge, today-minAge] as calendar dates in UTC.
func AgeWindow(today time.Time, minAge, maxAge int) (earliest, latest time.Time) {
	day := startOfDay(today)
	return subtractYears(day, maxAge), subtractYears(day, minAge)
}

// ParseDate parses a YYYY-MM-DD date. Out-of-range components such as 2023-02-30 fail.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsValidDate reports whether s is a real calendar date within a plausible distance of today.
func IsValidDate(s string, today time.Time) bool {
	if s == "" {
		return false
	}
	date, ok := ParseDate(s)
	if !ok {
		return false
	}
	day := startOfDay(today)
	past := subtractYears(day, plausibleYears)
	future := subtractYears(day, -plausibleYears)
	return date.After(past) && date.Before(future)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// subtractYears clamps to the end of the month instead of overflowing,
// so 29 Feb minus one year is 28 Feb.
func subtractYears(t time.Time, years int) time.Time {
	y := t.Year() - years
	m := t.Month()
	d := t.Day()
	if last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day(); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
