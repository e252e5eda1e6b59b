package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationFailed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ValidationFailed("legal_name", map[string]string{
		"legalFirstName": "common.error.fieldRequired",
		"legalLastName":  "privatePersonalDetails.error.hasInvalidCharacter",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("legal_name", "legalFirstName", "common.error.fieldRequired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("legal_name", "invalid")))
}

func TestSubmitted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Submitted("dob", nil)
	m.Submitted("dob", nil)
	m.Submitted("dob", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("dob", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("dob", "failed")))
}

func TestObserveUpdate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveUpdate("update_dob", time.Now())

	count, err := testutil.GatherAndCount(reg, "privatedetails_update_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
