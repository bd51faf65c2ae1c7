package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *RedisGateway {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatal("cannot connect to redis db: ", err)
	}
	return NewRedisGateway(client, zerolog.Nop())
}

func receiveSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap := <-sub.Snapshots():
		return snap
	case err := <-sub.Cancelled():
		t.Fatal("subscription cancelled: ", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestRedisGateway_GenerateKeyIsUnique(t *testing.T) {
	g := newTestGateway(t)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		key, err := g.GenerateKey()
		require.NoError(t, err)
		assert.NotEmpty(t, key)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestRedisGateway_SubscribeEmptyPath(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	sub, err := g.Subscribe(ctx, "chats/c1/messages")
	require.NoError(t, err)
	defer sub.Close()

	snap := receiveSnapshot(t, sub)
	assert.Empty(t, snap)
}

func TestRedisGateway_SnapshotsFollowWriteOrder(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Write(ctx, "chats/c1/messages/m1", []byte(`"one"`)))
	require.NoError(t, g.Write(ctx, "chats/c1/messages/m2", []byte(`"two"`)))

	sub, err := g.Subscribe(ctx, "chats/c1/messages")
	require.NoError(t, err)
	defer sub.Close()

	t.Run("initial snapshot carries existing children in order", func(t *testing.T) {
		snap := receiveSnapshot(t, sub)
		require.Len(t, snap, 2)
		assert.Equal(t, "m1", snap[0].Key)
		assert.Equal(t, "m2", snap[1].Key)
	})

	t.Run("a write pushes a full snapshot to the writer too", func(t *testing.T) {
		require.NoError(t, g.Write(ctx, "chats/c1/messages/m3", []byte(`"three"`)))
		snap := receiveSnapshot(t, sub)
		require.Len(t, snap, 3)
		assert.Equal(t, "m3", snap[2].Key)
		assert.Equal(t, []byte(`"three"`), snap[2].Data)
	})
}

func TestRedisGateway_OverwriteKeepsPosition(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Write(ctx, "chats/c1/messages/m1", []byte(`"old"`)))
	require.NoError(t, g.Write(ctx, "chats/c1/messages/m2", []byte(`"second"`)))
	require.NoError(t, g.Write(ctx, "chats/c1/messages/m1", []byte(`"new"`)))

	sub, err := g.Subscribe(ctx, "chats/c1/messages")
	require.NoError(t, err)
	defer sub.Close()

	snap := receiveSnapshot(t, sub)
	require.Len(t, snap, 2)
	assert.Equal(t, "m1", snap[0].Key)
	assert.Equal(t, []byte(`"new"`), snap[0].Data)
}

func TestRedisGateway_WritesUnderDifferentParentsAreIsolated(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	sub, err := g.Subscribe(ctx, "chats/c1/messages")
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, receiveSnapshot(t, sub))

	require.NoError(t, g.Write(ctx, "chats/c2/messages/m1", []byte(`"elsewhere"`)))
	require.NoError(t, g.Write(ctx, "chats/c1/messages/m2", []byte(`"here"`)))

	snap := receiveSnapshot(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, "m2", snap[0].Key)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	g := newTestGateway(t)

	sub, err := g.Subscribe(context.Background(), "chats")
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	assert.False(t, sub.Deliver(Snapshot{}))
}

func TestSubscription_CancelIsTerminal(t *testing.T) {
	sub := NewSubscription()
	sub.Cancel(ErrSubscriptionLost)
	sub.Cancel(ErrSubscriptionLost)
	sub.Close()

	select {
	case err := <-sub.Cancelled():
		assert.ErrorIs(t, err, ErrSubscriptionLost)
	default:
		t.Fatal("expected a cancellation reason")
	}
	assert.False(t, sub.Deliver(Snapshot{}))
}
