package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to redis with short timeouts.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// Healthy verifies redis connectivity.
func Healthy(ctx context.Context, client *redis.Client) bool {
	if client == nil {
		return false
	}
	return client.Ping(ctx).Err() == nil
}

// Registry tracks revoked token ids in redis until their natural expiry.
// Logout is best-effort: without redis, token expiry alone bounds the
// session.
type Registry struct {
	client *redis.Client
}

// NewRegistry wraps a redis client; a nil client yields a no-op registry.
func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

// Revoke denylists a token id for the remainder of its lifetime.
func (r *Registry) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r == nil || r.client == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revocationKey(tokenID), "revoked", ttl).Err()
}

// Revoked reports whether a token id has been denylisted. Redis errors
// read as not revoked; an unreachable registry must not lock everyone out.
func (r *Registry) Revoked(ctx context.Context, tokenID string) bool {
	if r == nil || r.client == nil || tokenID == "" {
		return false
	}
	n, err := r.client.Exists(ctx, revocationKey(tokenID)).Result()
	return err == nil && n > 0
}

func revocationKey(tokenID string) string {
	return "eventpass:revoked:" + tokenID
}
