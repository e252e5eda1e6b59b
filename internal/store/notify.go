package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the Redis pub/sub channel carrying change notifications.
const ChangesChannel = "personal_details:changed"

// Notifier tells other instances that a user's details changed.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID) error
}

// NoopNotifier is used when there is only one instance.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, uuid.UUID) error { return nil }

type changeMessage struct {
	InstanceID uuid.UUID `json:"instance_id"`
	UserID     uuid.UUID `json:"user_id"`
}

// RedisBridge publishes local changes and refreshes the store on remote ones.
type RedisBridge struct {
	client     *redis.Client
	store      *Store
	instanceID uuid.UUID
	logger     *slog.Logger
}

func NewRedisBridge(client *redis.Client, store *Store, instanceID uuid.UUID, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{
		client:     client,
		store:      store,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Notify publishes a change for userID.
func (b *RedisBridge) Notify(ctx context.Context, userID uuid.UUID) error {
	payload, err := json.Marshal(changeMessage{InstanceID: b.instanceID, UserID: userID})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, ChangesChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish change notification: %w", err)
	}
	return nil
}

// Run relays remote notifications into the store until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", ChangesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, payload string) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.logger.Warn("dropping malformed change notification", slog.String("error", err.Error()))
		return
	}
	if msg.InstanceID == b.instanceID {
		return
	}
	if err := b.store.Refresh(ctx, msg.UserID); err != nil {
		b.logger.Error("refresh after remote change failed",
			slog.String("user_id", msg.UserID.String()),
			slog.String("error", err.Error()),
		)
	}
}
