package cache

import (
	"context"
	"time"
)

// revokedPrefix is the Redis key prefix for revoked token ids.
const revokedPrefix = "revoked:jti:"

// MarkRevoked caches a revoked token id until the token's natural
// expiry, after which the expiry check rejects it anyway.
// Only positive ("revoked") verdicts are ever cached: a missing key
// means "consult the store", never "not revoked", so a cache problem
// can make the gate slower but never un-revoke a token.
func (c *Cache) MarkRevoked(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Token already expired; the gate rejects it on expiry alone.
		return nil
	}

	return c.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether the token id has a cached revoked verdict.
// A miss or an error means the caller must fall through to the store.
func (c *Cache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
