// Package cache stores machine translations so that the same source text is
// never sent to the provider twice for the same language pair.
//
// Three backends share the Store interface: a SQLite file kept in the
// project's .arbkit directory (the default), Redis for teams that share a
// cache between machines, and an in-memory map for tests and --no-cache runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "cache closed"
)

// ErrMigration is returned when the cache schema cannot be brought up to date.
var ErrMigration = errors.New("cache migration failed")

// Key identifies a cached translation.
type Key struct {
	SourceLang string
	TargetLang string
	Text       string
}

// NormalizeText returns the form of s used for cache lookups: Unicode NFC
// with surrounding whitespace removed. Case is preserved.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize returns k with its text normalized.
func (k Key) Normalize() Key {
	k.Text = NormalizeText(k.Text)
	return k
}

// Hash returns the hex SHA-256 of the normalized text.
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(NormalizeText(k.Text)))
	return hex.EncodeToString(sum[:])
}

// Stats describes a store.
type Stats struct {
	Backend string
	Entries int64
	Hits    int64
	Misses  int64
	Writes  int64
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d entries, %d hits, %d misses (%.1f%%), %d writes",
		s.Backend, s.Entries, s.Hits, s.Misses, s.HitRate(), s.Writes)
}

// Store is a translation cache backend. Implementations are safe for use
// by one goroutine at a time; arbkit never shares a store across goroutines.
type Store interface {
	// Get returns the cached translation for k, reporting whether it exists.
	Get(ctx context.Context, k Key) (string, bool, error)
	// Put stores or replaces the translation for k.
	Put(ctx context.Context, k Key, translated string) error
	// Stats returns entry count and this session's counters.
	Stats(ctx context.Context) (Stats, error)
	// Prune removes entries not used for longer than olderThan and returns
	// how many were removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Close releases resources held by the store.
	Close() error
}

// counters tracks session statistics shared by all backends.
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
	closed atomic.Bool
}

func (c *counters) stats(backend string, entries int64) Stats {
	return Stats{
		Backend: backend,
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Writes:  c.writes.Load(),
	}
}

// Options selects and configures a backend for Open.
type Options struct {
	// Disabled selects the in-memory store.
	Disabled bool
	// RedisURL selects the Redis store when set.
	RedisURL string
	// RedisPrefix is prepended to every Redis key.
	RedisPrefix string
	// RedisTTL bounds the lifetime of Redis entries (0 = no expiry).
	RedisTTL time.Duration
	// SQLitePath is the database file used otherwise.
	SQLitePath string
}

// Open returns the backend selected by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch {
	case opts.Disabled:
		return NewMemoryStore(), nil
	case opts.RedisURL != "":
		ro := DefaultRedisOptions()
		ro.URL = opts.RedisURL
		if opts.RedisPrefix != "" {
			ro.Prefix = opts.RedisPrefix
		}
		if opts.RedisTTL > 0 {
			ro.TTL = opts.RedisTTL
		}
		return NewRedisStore(ctx, ro)
	case opts.SQLitePath != "":
		return OpenSQLite(ctx, opts.SQLitePath)
	default:
		return nil, errors.New("cache: no backend configured")
	}
}
