package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList marks signed-out token IDs in Redis, expiring with the
// token itself so the set cannot grow unbounded.
type RevocationList struct {
	client *redis.Client
}

func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

func (l *RevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil // already expired, nothing to revoke
	}
	return l.client.Set(ctx, l.key(jti), "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RevocationList) key(jti string) string {
	return "token:revoked:" + jti
}
