package domain

import (
	"time"

	"github.com/google/uuid"
)

// Field identifiers shared by form state, error maps and wire formats.
const (
	FieldDateOfBirth    = "dob"
	FieldLegalFirstName = "legalFirstName"
	FieldLegalLastName  = "legalLastName"
)

// DateLayout is the only accepted date-of-birth representation.
const DateLayout = "2006-01-02"

// PrivatePersonalDetails is the private part of a user's profile.
// A user without stored details is represented by the zero value with UserID set.
type PrivatePersonalDetails struct {
	UserID         uuid.UUID
	DateOfBirth    string
	LegalFirstName string
	LegalLastName  string

	UpdatedAt time.Time

	// Version for optimistic locking; 0 means never stored.
	Version int
}

// EmptyDetails returns the record for a user that has nothing stored yet.
func EmptyDetails(userID uuid.UUID) *PrivatePersonalDetails {
	return &PrivatePersonalDetails{UserID: userID}
}

// ChangeSet names which group of fields an update touched.
type ChangeSet string

const (
	ChangeSetDateOfBirth ChangeSet = "dob"
	ChangeSetLegalName   ChangeSet = "legal_name"
)

// DetailsChange is an append-only history entry written alongside every update.
type DetailsChange struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ChangeSet ChangeSet
	ChangedAt time.Time
}

func NewDetailsChange(userID uuid.UUID, set ChangeSet) DetailsChange {
	return DetailsChange{
		ID:        uuid.New(),
		UserID:    userID,
		ChangeSet: set,
		ChangedAt: time.Now().UTC(),
	}
}

// ParseUserID parses a user id, reporting ErrInvalidInput on malformed input.
func ParseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ValidationError{Field: "user_id", Message: "invalid format"}
	}
	return id, nil
}
