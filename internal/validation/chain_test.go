package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/privatedetails/internal/domain"
)

func static(m ErrorMap) Func {
	return func(Values) ErrorMap { return m }
}

func TestChainMergesPerField(t *testing.T) {
	chain := Chain{
		static(ErrorMap{"a": "first.a", "b": "first.b"}),
		static(ErrorMap{"b": "second.b"}),
		static(ErrorMap{}),
		static(ErrorMap{"c": "third.c"}),
	}

	assert.Equal(t, ErrorMap{
		"a": "first.a",
		"b": "second.b",
		"c": "third.c",
	}, chain.Validate(Values{}))
}

func TestEmptyChainIsValid(t *testing.T) {
	assert.True(t, Chain{}.Validate(Values{"a": "x"}).Valid())
}

func TestErrorMapErr(t *testing.T) {
	assert.NoError(t, ErrorMap{}.Err())

	err := ErrorMap{
		domain.FieldLegalLastName:  KeyFieldRequired,
		domain.FieldLegalFirstName: KeyHasInvalidCharacter,
	}.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, domain.FieldLegalFirstName, verrs[0].Field)
	assert.Equal(t, domain.FieldLegalLastName, verrs[1].Field)
	assert.Equal(t, map[string]string{
		domain.FieldLegalFirstName: KeyHasInvalidCharacter,
		domain.FieldLegalLastName:  KeyFieldRequired,
	}, verrs.Fields())
}
