//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/accountd/accountd/internal/testutil"
)

func TestIntegrationRevocationCache_MarkAndCheck(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	tokenID := testutil.UniqueTokenID("mark")

	if err := c.MarkRevoked(ctx, tokenID, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("MarkRevoked failed: %v", err)
	}

	revoked, err := c.IsRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("token should be revoked after MarkRevoked")
	}
}

func TestIntegrationRevocationCache_UnknownToken(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	revoked, err := c.IsRevoked(ctx, testutil.UniqueTokenID("unknown"))
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("unknown token reported as revoked")
	}
}

func TestIntegrationRevocationCache_ExpiredEntryNotStored(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	tokenID := testutil.UniqueTokenID("expired")

	// Token is already past its expiry; caching it would be pointless
	if err := c.MarkRevoked(ctx, tokenID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("MarkRevoked failed: %v", err)
	}

	revoked, err := c.IsRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("expired revocation should not be cached")
	}
}

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}
