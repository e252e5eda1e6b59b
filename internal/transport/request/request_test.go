package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvaleed/privatedetails/internal/validation"
)

func TestLegalNameWithinCap(t *testing.T) {
	v := NewValidator(50)

	errs := v.Check(LegalName{
		LegalFirstName: strings.Repeat("é", 50),
		LegalLastName:  "Doe",
	})
	assert.True(t, errs.Valid())
}

func TestLegalNameOverCap(t *testing.T) {
	v := NewValidator(5)

	errs := v.Check(LegalName{LegalFirstName: "Johnathan", LegalLastName: "Doe"})
	assert.Equal(t, validation.ErrorMap{"legalFirstName": validation.KeyCharacterLimitExceeded}, errs)
}

func TestDefaultCap(t *testing.T) {
	v := NewValidator(0)

	errs := v.Check(&LegalName{
		LegalFirstName: strings.Repeat("a", validation.DefaultNameMaxLength+1),
		LegalLastName:  strings.Repeat("b", validation.DefaultNameMaxLength+1),
	})
	assert.Len(t, errs, 2)
}

func TestDateOfBirthCap(t *testing.T) {
	v := NewValidator(50)

	assert.True(t, v.Check(DateOfBirth{DOB: "1990-05-01"}).Valid())
	assert.Equal(t,
		validation.ErrorMap{"dob": validation.KeyCharacterLimitExceeded},
		v.Check(DateOfBirth{DOB: strings.Repeat("1", 40)}),
	)
}
