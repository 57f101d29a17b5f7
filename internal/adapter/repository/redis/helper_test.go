package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient returns a client bound to a fresh in-memory server.
// Stores share one Redis in production, so tests use a non-default DB to
// catch keys that ignore the client options.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
		DB:   2,
	})
	t.Cleanup(func() { _ = client.Close() })

	mr.Select(2)
	return client, mr
}

func assertTTL(t *testing.T, mr *miniredis.Miniredis, key string, want time.Duration) {
	t.Helper()

	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}
	if got := mr.TTL(key); got != want {
		t.Fatalf("expected ttl %s for %q, got %s", want, key, got)
	}
}
