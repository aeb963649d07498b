package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// SQLiteStore keeps translations in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	counters
}

// OpenSQLite opens (creating if needed) the cache database at path and
// applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps the per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// migrate runs all pending schema migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("%w: setting dialect: %v", ErrMigration, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%w: %v", ErrMigration, err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Get returns the cached translation and refreshes its last-used time.
func (s *SQLiteStore) Get(ctx context.Context, k Key) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}

	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translations
		 WHERE source_lang = ? AND target_lang = ? AND source_hash = ?`,
		k.SourceLang, k.TargetLang, k.Hash(),
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE translations SET last_used_at = ?
		 WHERE source_lang = ? AND target_lang = ? AND source_hash = ?`,
		time.Now().Unix(), k.SourceLang, k.TargetLang, k.Hash(),
	); err != nil {
		return "", false, fmt.Errorf("touching cache entry: %w", err)
	}

	s.hits.Add(1)
	return translated, true, nil
}

// Put upserts a translation.
func (s *SQLiteStore) Put(ctx context.Context, k Key, translated string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations
		   (source_lang, target_lang, source_hash, source_text, translated_text, created_at, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_lang, target_lang, source_hash)
		 DO UPDATE SET translated_text = excluded.translated_text,
		               last_used_at = excluded.last_used_at`,
		k.SourceLang, k.TargetLang, k.Hash(), NormalizeText(k.Text), translated, now, now,
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	s.writes.Add(1)
	return nil
}

// Stats returns the entry count and session counters.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if s.closed.Load() {
		return Stats{}, ErrClosed
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return s.stats("sqlite "+s.path, n), nil
}

// Prune deletes entries whose last use is older than olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE last_used_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM translations`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.db.Close()
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
