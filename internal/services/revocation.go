package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// TokenRevocations keeps logged-out JWT ids in Redis. It satisfies both
// Revoker and middleware.TokenRevoker.
type TokenRevocations struct {
	redis *redis.Client
}

func NewTokenRevocations(client *redis.Client) *TokenRevocations {
	return &TokenRevocations{redis: client}
}

func (t *TokenRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return t.redis.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

func (t *TokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := t.redis.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
