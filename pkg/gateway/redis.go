package gateway

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// RedisGateway implements Gateway on a redis backend. Records live as JSON
// strings, child order comes from a per-parent list index, and change
// notifications ride redis pub/sub so every subscribed client re-reads the
// full child set, writer included.
type RedisGateway struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisGateway(client *redis.Client, logger zerolog.Logger) *RedisGateway {
	return &RedisGateway{
		client: client,
		log:    logger.With().Str("component", "gateway").Logger(),
	}
}

func recordKey(path string) string { return "rec:" + path }
func indexKey(path string) string  { return "idx:" + path }
func notifyKey(path string) string { return "notify:" + path }

// GenerateKey returns a new k-sortable unique key, so key order follows
// generation order the way server-pushed keys do.
func (g *RedisGateway) GenerateKey() (string, error) {
	return xid.New().String(), nil
}

func (g *RedisGateway) Write(ctx context.Context, path string, data []byte) error {
	parent := parentOf(path)

	created, err := g.client.SetNX(ctx, recordKey(path), data, 0).Result()
	if err != nil {
		return fmt.Errorf("gateway write %s: %w", path, err)
	}
	if created {
		// First write of this path: append to the parent's insertion
		// index, which fixes the child's position permanently.
		if err := g.client.RPush(ctx, indexKey(parent), path).Err(); err != nil {
			return fmt.Errorf("gateway index %s: %w", path, err)
		}
	} else if err := g.client.Set(ctx, recordKey(path), data, 0).Err(); err != nil {
		return fmt.Errorf("gateway write %s: %w", path, err)
	}

	if err := g.client.Publish(ctx, notifyKey(parent), path).Err(); err != nil {
		return fmt.Errorf("gateway notify %s: %w", parent, err)
	}
	return nil
}

func (g *RedisGateway) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	pubsub := g.client.Subscribe(ctx, notifyKey(path))
	// Confirm the subscription is established before the initial read so no
	// concurrent write slips between the two.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("gateway subscribe %s: %w", path, err)
	}

	sub := NewSubscription()
	go g.pump(ctx, path, pubsub, sub)
	return sub, nil
}

func (g *RedisGateway) pump(ctx context.Context, path string, pubsub *redis.PubSub, sub *Subscription) {
	defer pubsub.Close()

	snap, err := g.readChildren(ctx, path)
	if err != nil {
		sub.Cancel(err)
		return
	}
	if !sub.Deliver(snap) {
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-sub.Done():
			return
		case <-ctx.Done():
			sub.Cancel(ctx.Err())
			return
		case _, ok := <-ch:
			if !ok {
				sub.Cancel(ErrSubscriptionLost)
				return
			}
			snap, err := g.readChildren(ctx, path)
			if err != nil {
				sub.Cancel(err)
				return
			}
			if !sub.Deliver(snap) {
				return
			}
		}
	}
}

// readChildren materialises the full ordered child set under path.
func (g *RedisGateway) readChildren(ctx context.Context, path string) (Snapshot, error) {
	paths, err := g.client.LRange(ctx, indexKey(path), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("gateway read index %s: %w", path, err)
	}
	if len(paths) == 0 {
		return Snapshot{}, nil
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = recordKey(p)
	}
	values, err := g.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("gateway read records %s: %w", path, err)
	}

	snap := make(Snapshot, 0, len(paths))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			g.log.Warn().Str("path", paths[i]).Msg("indexed record missing, skipping")
			continue
		}
		snap = append(snap, Record{Key: lastSegment(paths[i]), Data: []byte(s)})
	}
	return snap, nil
}
