package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/privatedetails/internal/domain"
)

func changePayload(t *testing.T, instanceID, userID uuid.UUID) string {
	t.Helper()
	b, err := json.Marshal(changeMessage{InstanceID: instanceID, UserID: userID})
	require.NoError(t, err)
	return string(b)
}

func TestRedisBridgeHandle(t *testing.T) {
	loader := newFakeLoader()
	s := New(loader, discardLogger())
	self := uuid.New()
	bridge := NewRedisBridge(nil, s, self, discardLogger())

	userID := uuid.New()
	unsubscribe := s.Subscribe(userID, func(Record) {})
	defer unsubscribe()
	loader.set(domain.PrivatePersonalDetails{UserID: userID, LegalFirstName: "Jane", Version: 4})

	t.Run("ignores own notifications", func(t *testing.T) {
		bridge.handle(context.Background(), changePayload(t, self, userID))
		assert.Equal(t, 0, loader.calls)
	})

	t.Run("ignores malformed payloads", func(t *testing.T) {
		bridge.handle(context.Background(), "{not json")
		assert.Equal(t, 0, loader.calls)
	})

	t.Run("refreshes on remote notifications", func(t *testing.T) {
		bridge.handle(context.Background(), changePayload(t, uuid.New(), userID))
		assert.Equal(t, 1, loader.calls)
		assert.Equal(t, "Jane", s.Get(userID).Details.LegalFirstName)
	})
}
