package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sazon/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_NilClient(t *testing.T) {
	// Publisher with nil Redis should return nil error (fail-open/noop)
	p := NewRedisPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: EventCreated}))
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestRedisPublisher_PublishesToEventsAndOwner(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, EventsChannel, UserChannel("owner-1"))
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(rdb)
	event := Event{
		Type:       EventCreated,
		Kind:       models.KindReaction,
		ID:         "r1",
		ActorID:    "actor-1",
		OwnerID:    "owner-1",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, p.Publish(ctx, event))

	channels := map[string]Event{}
	for range 2 {
		select {
		case msg := <-sub.Channel():
			var got Event
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
			channels[msg.Channel] = got
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, "r1", channels[EventsChannel].ID)
	assert.Equal(t, models.KindReaction, channels[UserChannel("owner-1")].Kind)
}

func TestRedisPublisher_SkipsSelfNotification(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel("u1"))
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(rdb)
	require.NoError(t, p.Publish(ctx, Event{Type: EventCreated, Kind: models.KindComment, ID: "c1", ActorID: "u1", OwnerID: "u1"}))

	assert.Never(t, func() bool {
		select {
		case <-sub.Channel():
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://:bad@[::1")
	assert.Error(t, err)
}
