// Package event delivers personal details change events.
//
// The service publishes through Publisher and does not know which broker sits
// behind it. KafkaPublisher is used when brokers are configured and
// LoggingPublisher otherwise.
package event

import (
	"context"
	"log/slog"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// Publisher delivers personal details events. Events carry the user, the
// record version and the kind of change, never the private values.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error

	// PublishBatch delivers events in order.
	PublishBatch(ctx context.Context, events []domain.Event) error

	Close() error
}

// ChangedFields returns the form field ids an event type touches, or nil for
// an unknown type.
func ChangedFields(eventType string) []string {
	switch eventType {
	case domain.EventDateOfBirthUpdated:
		return []string{domain.FieldDateOfBirth}
	case domain.EventLegalNameUpdated:
		return []string{domain.FieldLegalFirstName, domain.FieldLegalLastName}
	default:
		return nil
	}
}

// LoggingPublisher writes one log line per change. Only event metadata is
// logged; nothing in Data beyond the version is copied out.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger.With(slog.String("component", "personal_details_events"))}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.Event) error {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.Any("fields", ChangedFields(event.Type)),
	}
	if v, ok := event.Data["version"]; ok {
		attrs = append(attrs, slog.Any("version", v))
	}

	level := slog.LevelInfo
	if ChangedFields(event.Type) == nil {
		level = slog.LevelWarn
	}
	p.logger.LogAttrs(ctx, level, "personal details changed", attrs...)
	return nil
}

func (p *LoggingPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *LoggingPublisher) Close() error { return nil }

// NoopPublisher drops every event. Tests and single-instance setups that
// don't need change events use it.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (*NoopPublisher) Publish(context.Context, domain.Event) error        { return nil }
func (*NoopPublisher) PublishBatch(context.Context, []domain.Event) error { return nil }
func (*NoopPublisher) Close() error                                       { return nil }
