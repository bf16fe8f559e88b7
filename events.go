package grantkit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventKind identifies a domain event emitted by mutating operations.
type EventKind string

const (
	EventRoleAssigned EventKind = "role_assigned"
	EventRoleChanged  EventKind = "role_changed"
	EventRoleRemoved  EventKind = "role_removed"
)

// Event describes a completed mutation for external consumers (notification
// and audit systems). The engine only emits events; handling them is out of
// its scope.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Subject   Ref       `json:"subject"`
	Target    Ref       `json:"target"`
	Role      string    `json:"role,omitempty"`     // role name after the mutation
	OldRole   string    `json:"old_role,omitempty"` // prior role name, set for role_changed
	Actor     string    `json:"actor,omitempty"`    // from context, when provided
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// EventSink receives domain events. Publish failures never fail the mutation
// that produced the event; the service logs them and moves on.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// NopSink discards all events. The default when no sink is configured.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(context.Context, Event) error { return nil }

// RedisEventSink publishes events as JSON to a Redis channel.
type RedisEventSink struct {
	client  *redis.Client
	channel string
}

// DefaultEventChannel is used when NewRedisEventSink gets an empty channel.
const DefaultEventChannel = "grantkit.events"

// NewRedisEventSink creates a sink publishing to the given channel.
func NewRedisEventSink(client *redis.Client, channel string) *RedisEventSink {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisEventSink{client: client, channel: channel}
}

// Publish implements EventSink.
func (s *RedisEventSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func newEvent(ctx context.Context, kind EventKind, subject, target Ref, role, oldRole string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   subject,
		Target:    target,
		Role:      role,
		OldRole:   oldRole,
		Actor:     GetActorID(ctx),
		RequestID: GetRequestID(ctx),
		At:        time.Now().UTC(),
	}
}
