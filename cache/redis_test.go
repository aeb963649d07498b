package cache

import (
	"context"
	"os"
	"testing"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("ARBKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: ARBKIT_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisStore(t *testing.T) {
	url := skipIfNoRedis(t)

	opts := DefaultRedisOptions()
	opts.URL = url
	opts.Prefix = "arbkit-test:"
	s, err := NewRedisStore(context.Background(), opts)
	if err != nil {
		t.Fatalf("failed to create Redis store: %v", err)
	}
	exerciseStore(t, s)
}

func TestRedisStore_KeyLayout(t *testing.T) {
	s := &RedisStore{prefix: "p:"}
	k := Key{SourceLang: "en", TargetLang: "de", Text: "Hi"}
	want := "p:en:de:" + k.Hash()
	if got := s.redisKey(k); got != want {
		t.Errorf("redisKey = %q, want %q", got, want)
	}
}

func TestNewRedisStore_RequiresURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), DefaultRedisOptions()); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
