package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist remembers revoked access tokens by their jti until the
// token would have expired anyway. A nil Redis client turns every method
// into a no-op, leaving tokens valid until their natural expiry.
type TokenDenylist struct {
	rdb    *redis.Client
	prefix string
}

func NewTokenDenylist(rdb *redis.Client, prefix string) *TokenDenylist {
	if prefix == "" {
		prefix = "techpulse:revoked"
	}
	return &TokenDenylist{rdb: rdb, prefix: prefix}
}

func (d *TokenDenylist) key(jti string) string { return d.prefix + ":" + jti }

// Revoke denylists jti until exp.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if d.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, d.key(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti has been denylisted.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d.rdb == nil || jti == "" {
		return false, nil
	}
	err := d.rdb.Get(ctx, d.key(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	}
	return false, err
}
