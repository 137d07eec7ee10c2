package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients splits key/value traffic (quiz sessions, token revocation)
// from the pub/sub connection that feeds the comment websocket.
type RedisClients struct {
	KV     *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := dialRedis(ctx, opt, "kv")
	if err != nil {
		return nil, err
	}
	pubsub, err := dialRedis(ctx, opt, "pubsub")
	if err != nil {
		kv.Close()
		return nil, err
	}
	return &RedisClients{KV: kv, PubSub: pubsub}, nil
}

func dialRedis(ctx context.Context, opt *redis.Options, role string) (*redis.Client, error) {
	o := *opt
	o.ClientName = "cuckoo-" + role
	client := redis.NewClient(&o)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
	}
	return client, nil
}

// Ping checks both connections; used by the health endpoint.
func (r *RedisClients) Ping(ctx context.Context) error {
	return errors.Join(r.KV.Ping(ctx).Err(), r.PubSub.Ping(ctx).Err())
}

func (r *RedisClients) Close() {
	r.KV.Close()
	r.PubSub.Close()
}
