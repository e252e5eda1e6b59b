package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/mvaleed/privatedetails/internal/auth"
	"github.com/mvaleed/privatedetails/internal/event"
	"github.com/mvaleed/privatedetails/internal/form"
	"github.com/mvaleed/privatedetails/internal/metrics"
	"github.com/mvaleed/privatedetails/internal/service"
	"github.com/mvaleed/privatedetails/internal/storage/memory"
	"github.com/mvaleed/privatedetails/internal/store"
	"github.com/mvaleed/privatedetails/internal/transport/request"
	"github.com/mvaleed/privatedetails/internal/validation"
)

var today = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type ServerSuite struct {
	suite.Suite
	server *Server
	repo   *memory.Store
	jwt    *auth.JWTManager
	userID uuid.UUID
	token  string
	health error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s.repo = memory.New()
	records := store.New(s.repo, logger)
	details := service.NewPersonalDetailsService(s.repo, s.repo, records, store.NoopNotifier{}, event.NewNoopPublisher(), m, logger)

	names, err := validation.NewLegalNameValidator("")
	s.Require().NoError(err)
	validators := form.Validators{
		Date:      validation.NewDateValidator(18, 150),
		LegalName: names,
		Now:       func() time.Time { return today },
	}

	cfg := auth.DefaultJWTConfig()
	cfg.SecretKey = "test-secret"
	s.jwt = auth.NewJWTManager(cfg)

	s.health = nil
	s.server = NewServer(Dependencies{
		Details:  details,
		Sessions: form.NewSessions(records, details, validators, m),
		Inputs:   request.NewValidator(10),
		Dates:    validators.Date,
		JWT:      s.jwt,
		Gatherer: reg,
		Checks: map[string]HealthCheck{
			"database": func(context.Context) error { return s.health },
		},
		Now: func() time.Time { return today },
	}, logger)

	s.userID = uuid.New()
	s.token, _, err = s.jwt.GenerateAccessToken(auth.TokenPayload{UserID: s.userID})
	s.Require().NoError(err)
}

func (s *ServerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v))
}

func (s *ServerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)

	s.health = errors.New("connection refused")
	rec = s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "connection refused")
}

func (s *ServerSuite) TestRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/personal-details", nil)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)

	s.token = "garbage"
	rec = s.do(http.MethodGet, "/api/v1/me/personal-details", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerSuite) TestGetEmptyDetailsWithBounds() {
	rec := s.do(http.MethodGet, "/api/v1/me/personal-details", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp getPersonalDetailsResponse
	s.decode(rec, &resp)
	s.Equal(s.userID.String(), resp.UserID)
	s.Empty(resp.DateOfBirth)
	s.Empty(resp.UpdatedAt)
	s.Equal("1874-06-15", resp.DateOfBirthBounds.MinDate)
	s.Equal("2006-06-15", resp.DateOfBirthBounds.MaxDate)
}

func (s *ServerSuite) TestUpdateDateOfBirth() {
	rec := s.do(http.MethodPut, "/api/v1/me/personal-details/date-of-birth", map[string]string{"dob": "1990-05-01"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp personalDetailsResponse
	s.decode(rec, &resp)
	s.Equal("1990-05-01", resp.DateOfBirth)
	s.Equal(1, resp.Version)

	stored, err := s.repo.Get(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Equal("1990-05-01", stored.DateOfBirth)

	rec = s.do(http.MethodGet, "/api/v1/me/personal-details/changes", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var changes listChangesResponse
	s.decode(rec, &changes)
	s.Require().Len(changes.Changes, 1)
	s.Equal("dob", changes.Changes[0].ChangeSet)
}

func (s *ServerSuite) TestUpdateDateOfBirthTooYoung() {
	rec := s.do(http.MethodPut, "/api/v1/me/personal-details/date-of-birth", map[string]string{"dob": "2020-01-01"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var resp errorResponse
	s.decode(rec, &resp)
	s.Equal("INVALID_INPUT", resp.Code)
	s.Equal(map[string]string{"dob": validation.KeyDateShouldBeBefore}, resp.Details)

	_, err := s.repo.Get(context.Background(), s.userID)
	s.Error(err)
}

func (s *ServerSuite) TestUpdateLegalNameTrims() {
	rec := s.do(http.MethodPut, "/api/v1/me/personal-details/legal-name", map[string]string{
		"legalFirstName": "  Jane  ",
		"legalLastName":  " Doe ",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp personalDetailsResponse
	s.decode(rec, &resp)
	s.Equal("Jane", resp.LegalFirstName)
	s.Equal("Doe", resp.LegalLastName)
}

func (s *ServerSuite) TestUpdateLegalNameInvalid() {
	rec := s.do(http.MethodPut, "/api/v1/me/personal-details/legal-name", map[string]string{
		"legalFirstName": "J4ne",
		"legalLastName":  "   ",
	})
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var resp errorResponse
	s.decode(rec, &resp)
	s.Equal(map[string]string{
		"legalFirstName": validation.KeyHasInvalidCharacter,
		"legalLastName":  validation.KeyFieldRequired,
	}, resp.Details)
}

func (s *ServerSuite) TestUpdateLegalNameTooLong() {
	rec := s.do(http.MethodPut, "/api/v1/me/personal-details/legal-name", map[string]string{
		"legalFirstName": strings.Repeat("a", 11),
		"legalLastName":  "Doe",
	})
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var resp errorResponse
	s.decode(rec, &resp)
	s.Equal(map[string]string{"legalFirstName": validation.KeyCharacterLimitExceeded}, resp.Details)
}

func (s *ServerSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/personal-details/legal-name", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestListChangesRejectsBadLimit() {
	rec := s.do(http.MethodGet, "/api/v1/me/personal-details/changes?limit=zero", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestMetricsExposed() {
	s.do(http.MethodPut, "/api/v1/me/personal-details/date-of-birth", map[string]string{"dob": ""})

	rec := s.do(http.MethodGet, "/metrics", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "privatedetails_validation_failures_total")
}
