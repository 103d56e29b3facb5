package relay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ziris-labs/ziris/internal/errors"
)

// RedisTTL expires the stored view when the console stops relaying.
const RedisTTL = 10 * time.Minute

// Redis stores the latest message under Key and publishes it on the
// channel of the same name.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects lazily to addr.
func NewRedis(addr, key string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
		}),
		key: key,
	}
}

// Name implements Sink.
func (r *Redis) Name() string { return "redis" }

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.WrapWithCode(err, errors.ErrNetwork,
			"Redis unreachable at "+r.client.Options().Addr,
			"Check relay.redis_addr")
	}
	return nil
}

// Publish implements Sink.
func (r *Redis) Publish(ctx context.Context, m Message) error {
	_, payload, err := m.Encode()
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key, payload, RedisTTL)
		p.Publish(ctx, r.key, payload)
		return nil
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrNetwork, "Failed to write view to Redis", "")
	}
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error {
	return r.client.Close()
}
