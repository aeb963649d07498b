package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps translations in Redis so several machines can share them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	counters
}

// RedisOptions configures the Redis store.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys (e.g., "arbkit:")
	Prefix string

	// TTL is refreshed on every read and write (0 = no expiry)
	TTL time.Duration

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultRedisOptions returns sensible defaults.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:         "arbkit:",
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		redisOpts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		redisOpts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(redisOpts)

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}, nil
}

// redisKey builds "<prefix><src>:<tgt>:<sha256>".
func (s *RedisStore) redisKey(k Key) string {
	return fmt.Sprintf("%s%s:%s:%s", s.prefix, k.SourceLang, k.TargetLang, k.Hash())
}

// Get returns the cached translation. Reading refreshes the TTL and the
// key's idle time, which Prune relies on.
func (s *RedisStore) Get(ctx context.Context, k Key) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}

	var val string
	var err error
	if s.ttl > 0 {
		val, err = s.client.GetEx(ctx, s.redisKey(k), s.ttl).Result()
	} else {
		val, err = s.client.Get(ctx, s.redisKey(k)).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cache: %w", err)
	}

	s.hits.Add(1)
	return val, true, nil
}

// Put stores a translation.
func (s *RedisStore) Put(ctx context.Context, k Key, translated string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.client.Set(ctx, s.redisKey(k), translated, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	s.writes.Add(1)
	return nil
}

// scan calls fn for every batch of keys under the prefix.
func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	pattern := s.prefix + "*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Stats counts keys under the prefix (SCAN, approximate) and returns the
// session counters.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	if s.closed.Load() {
		return Stats{}, ErrClosed
	}
	var n int64
	err := s.scan(ctx, func(keys []string) error {
		n += int64(len(keys))
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return s.stats("redis", n), nil
}

// Prune deletes keys whose idle time exceeds olderThan.
func (s *RedisStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var removed int64
	err := s.scan(ctx, func(keys []string) error {
		var stale []string
		for _, key := range keys {
			idle, err := s.client.ObjectIdleTime(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return err
			}
			if idle > olderThan {
				stale = append(stale, key)
			}
		}
		if len(stale) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, stale...).Result()
		removed += n
		return err
	})
	if err != nil {
		return removed, fmt.Errorf("pruning cache: %w", err)
	}
	return removed, nil
}

// Clear removes all keys under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.scan(ctx, func(keys []string) error {
		return s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.client.Close()
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
