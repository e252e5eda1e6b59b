package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event that occurred.
// Events are immutable facts about something that happened.
type Event struct {
	ID        uuid.UUID
	Type      string
	Timestamp time.Time
	UserID    uuid.UUID
	Data      map[string]any
}

// Event type constants
const (
	EventDateOfBirthUpdated = "personal_details.dob_updated"
	EventLegalNameUpdated   = "personal_details.legal_name_updated"
)

// NewEvent creates a new domain event.
func NewEvent(eventType string, userID uuid.UUID, data map[string]any) Event {
	if data == nil {
		data = make(map[string]any)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

// Personal details are private; events only say which fields changed.
func DateOfBirthUpdatedEvent(d *PrivatePersonalDetails) Event {
	return NewEvent(EventDateOfBirthUpdated, d.UserID, map[string]any{
		"version": d.Version,
	})
}

func LegalNameUpdatedEvent(d *PrivatePersonalDetails) Event {
	return NewEvent(EventLegalNameUpdated, d.UserID, map[string]any{
		"version": d.Version,
	})
}
