package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emphasys/identity/internal/core/ports"
)

// RevocationList stores revoked token ids until the token would have expired anyway.
// Key format: revoked:<jti>
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.RevocationList = (*RevocationList)(nil)

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// Revoke marks tokenID as unusable until until. Already-expired tokens are skipped.
func (r *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := remaining(until, r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

// remaining is the time left until until, rounded up past the next whole second.
func remaining(until, now time.Time) time.Duration {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Second) + time.Second
}

func key(tokenID string) string {
	return "revoked:" + tokenID
}
