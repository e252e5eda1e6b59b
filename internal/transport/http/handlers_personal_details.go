package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/transport/request"
)

type personalDetailsResponse struct {
	UserID         string `json:"userId"`
	DateOfBirth    string `json:"dob"`
	LegalFirstName string `json:"legalFirstName"`
	LegalLastName  string `json:"legalLastName"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
	Version        int    `json:"version"`
}

func toPersonalDetailsResponse(d *domain.PrivatePersonalDetails) personalDetailsResponse {
	resp := personalDetailsResponse{
		UserID:         d.UserID.String(),
		DateOfBirth:    d.DateOfBirth,
		LegalFirstName: d.LegalFirstName,
		LegalLastName:  d.LegalLastName,
		Version:        d.Version,
	}
	if !d.UpdatedAt.IsZero() {
		resp.UpdatedAt = d.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// dateBounds is the range a date picker should offer.
type dateBounds struct {
	MinDate string `json:"minDate"`
	MaxDate string `json:"maxDate"`
}

type getPersonalDetailsResponse struct {
	personalDetailsResponse
	DateOfBirthBounds dateBounds `json:"dobBounds"`
}

func (s *Server) handleGetPersonalDetails(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	if claims == nil {
		s.writeError(w, domain.ErrUnauthorized)
		return
	}

	details, err := s.deps.Details.GetPrivatePersonalDetails(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	earliest, latest := s.deps.Dates.Bounds(s.deps.Now())
	s.writeJSON(w, http.StatusOK, getPersonalDetailsResponse{
		personalDetailsResponse: toPersonalDetailsResponse(details),
		DateOfBirthBounds: dateBounds{
			MinDate: earliest.Format(domain.DateLayout),
			MaxDate: latest.Format(domain.DateLayout),
		},
	})
}

func (s *Server) handleUpdateDateOfBirth(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	if claims == nil {
		s.writeError(w, domain.ErrUnauthorized)
		return
	}

	var req request.DateOfBirth
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if errs := s.deps.Inputs.Check(req); !errs.Valid() {
		s.writeError(w, errs.Err())
		return
	}

	details, err := s.deps.Sessions.SubmitDateOfBirth(r.Context(), claims.UserID, req.DOB)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toPersonalDetailsResponse(details))
}

func (s *Server) handleUpdateLegalName(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	if claims == nil {
		s.writeError(w, domain.ErrUnauthorized)
		return
	}

	var req request.LegalName
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if errs := s.deps.Inputs.Check(req); !errs.Valid() {
		s.writeError(w, errs.Err())
		return
	}

	details, err := s.deps.Sessions.SubmitLegalName(r.Context(), claims.UserID, req.LegalFirstName, req.LegalLastName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toPersonalDetailsResponse(details))
}

type changeResponse struct {
	ID        string `json:"id"`
	ChangeSet string `json:"changeSet"`
	ChangedAt string `json:"changedAt"`
}

type listChangesResponse struct {
	Changes []changeResponse `json:"changes"`
}

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r.Context())
	if claims == nil {
		s.writeError(w, domain.ErrUnauthorized)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, domain.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}

	changes, err := s.deps.Details.ListChanges(r.Context(), claims.UserID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := listChangesResponse{Changes: make([]changeResponse, 0, len(changes))}
	for _, c := range changes {
		resp.Changes = append(resp.Changes, changeResponse{
			ID:        c.ID.String(),
			ChangeSet: string(c.ChangeSet),
			ChangedAt: c.ChangedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
