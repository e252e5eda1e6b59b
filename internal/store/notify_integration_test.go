//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/mvaleed/privatedetails/internal/domain"
)

func TestRedisBridgeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	loader := newFakeLoader()
	receiving := New(loader, discardLogger())
	listener := NewRedisBridge(client, receiving, uuid.New(), discardLogger())
	sender := NewRedisBridge(client, New(newFakeLoader(), discardLogger()), uuid.New(), discardLogger())

	userID := uuid.New()
	updated := make(chan Record, 4)
	unsubscribe := receiving.Subscribe(userID, func(r Record) {
		if !r.IsLoading {
			updated <- r
		}
	})
	defer unsubscribe()

	go func() { _ = listener.Run(ctx) }()

	loader.set(domain.PrivatePersonalDetails{UserID: userID, DateOfBirth: "1990-05-01", Version: 1})
	require.Eventually(t, func() bool {
		require.NoError(t, sender.Notify(ctx, userID))
		select {
		case r := <-updated:
			return r.Details.DateOfBirth == "1990-05-01"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 250*time.Millisecond)
}
