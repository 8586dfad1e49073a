// Package notifications publishes committed integrity events to Redis.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sazon/internal/models"
	"sazon/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel receives every integrity event.
const EventsChannel = "integrity:events"

// Event types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event describes one committed mutation.
type Event struct {
	Type    string            `json:"type"`
	Kind    models.EntityKind `json:"kind"`
	ID      string            `json:"id"`
	ActorID string            `json:"actor_id,omitempty"`
	// OwnerID is the user whose content was acted on; they get a copy on
	// their notification channel.
	OwnerID    string                      `json:"owner_id,omitempty"`
	Logical    bool                        `json:"logical,omitempty"`
	Deleted    map[models.EntityKind]int64 `json:"deleted,omitempty"`
	OccurredAt time.Time                   `json:"occurred_at"`
}

// Publisher delivers events after commit.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// UserChannel returns the notification channel of a user.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

// RedisPublisher publishes events as JSON over Redis pub/sub.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher; a nil client makes it a no-op.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		observability.EventsPublished.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("publish event: %w", err)
	}
	if event.OwnerID != "" && event.OwnerID != event.ActorID {
		if err := p.rdb.Publish(ctx, UserChannel(event.OwnerID), payload).Err(); err != nil {
			observability.EventsPublished.WithLabelValues(string(event.Kind), "error").Inc()
			return fmt.Errorf("publish user notification: %w", err)
		}
	}
	observability.EventsPublished.WithLabelValues(string(event.Kind), "ok").Inc()
	return nil
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Connect opens a Redis client from a URL or a bare host:port and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
