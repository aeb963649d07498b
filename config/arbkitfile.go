// Package config: .arbkit.yaml project file support.
//
// The project file lives in the project root and is found by walking up from
// the working directory. It names the source ARB file; every other setting
// has a default. ARBKIT_* environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/cache"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/metadata"
	"github.com/minios-linux/arbkit/settings"
)

var (
	// ErrNoProject is returned when no .arbkit.yaml exists up to the
	// filesystem root.
	ErrNoProject = errors.New("no " + FileName + " found")
	// ErrSourcePathRequired is returned when arb.source_path is empty.
	ErrSourcePathRequired = errors.New("arb.source_path is required")
	// ErrAPIKeyRequired is returned when the paid provider has no key.
	ErrAPIKeyRequired = errors.New("a Google API key is required")
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// FileName is the project file name.
const FileName = ".arbkit.yaml"

// File is the top-level .arbkit.yaml structure.
type File struct {
	ARB       ARBConfig       `yaml:"arb"`
	Translate TranslateConfig `yaml:"translate,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Metadata  MetadataConfig  `yaml:"metadata,omitempty"`
}

// ARBConfig locates the ARB files.
type ARBConfig struct {
	// SourcePath is the template ARB file, relative to the project root.
	SourcePath string `yaml:"source_path"`
	// Prefix is the file name prefix (default: derived from SourcePath).
	Prefix string `yaml:"prefix,omitempty"`
	// Exclude lists language codes never translated.
	Exclude []string `yaml:"exclude,omitempty"`
	// Custom maps language codes to file names that break the prefix rule.
	Custom map[string]string `yaml:"custom,omitempty"`
}

// TranslateConfig configures the provider and the codec.
type TranslateConfig struct {
	// Provider is "free" (default) or "paid".
	Provider string `yaml:"provider,omitempty"`
	// ExcludeKeywords are regular expressions kept untranslated.
	ExcludeKeywords []string `yaml:"exclude_keywords,omitempty"`
	// EncodeParams shields {placeholders} (default true).
	EncodeParams *bool `yaml:"encode_params,omitempty"`
	// RequestsPerSecond paces provider calls (0 = unlimited).
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
}

// CacheConfig selects the translation cache backend.
type CacheConfig struct {
	// Path is the SQLite database (default .arbkit/cache.db).
	Path string `yaml:"path,omitempty"`
	// RedisURL selects Redis instead of SQLite.
	RedisURL string `yaml:"redis_url,omitempty"`
	// Prefix is the Redis key prefix.
	Prefix string `yaml:"prefix,omitempty"`
	// TTL bounds Redis entries (0 = no expiry).
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// MetadataConfig overrides the fastlane metadata roots.
type MetadataConfig struct {
	AndroidDir string `yaml:"android_dir,omitempty"`
	IOSDir     string `yaml:"ios_dir,omitempty"`
}

// Env holds the ARBKIT_* environment overrides.
type Env struct {
	GoogleAPIKey string `env:"ARBKIT_GOOGLE_API_KEY"`
	Provider     string `env:"ARBKIT_PROVIDER"`
	RedisURL     string `env:"ARBKIT_REDIS_URL"`
	CacheDB      string `env:"ARBKIT_CACHE_DB"`
	Proxy        string `env:"ARBKIT_PROXY"`
	LogLevel     string `env:"ARBKIT_LOG_LEVEL" envDefault:"info"`
}

// LoadEnv parses the ARBKIT_* environment variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Find walks up from start to the first directory holding FileName.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNoProject, start)
		}
		dir = parent
	}
}

// LoadFile reads and validates a project file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Validate checks required fields.
func (f *File) Validate() error {
	if f.ARB.SourcePath == "" {
		return ErrSourcePathRequired
	}
	return nil
}

// Save writes f as dir/.arbkit.yaml.
func (f *File) Save(dir string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", FileName, err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Project
// ---------------------------------------------------------------------------

// Project is a loaded project file with environment overrides applied.
type Project struct {
	// Root is the directory holding .arbkit.yaml.
	Root string
	File File
	Env  Env
}

// Load finds the project file from start, loads it and applies env.
func Load(start string, e Env) (*Project, error) {
	root, err := Find(start)
	if err != nil {
		return nil, err
	}
	f, err := LoadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	p := &Project{Root: root, File: *f, Env: e}
	p.applyEnv()
	return p, nil
}

func (p *Project) applyEnv() {
	if p.Env.Provider != "" {
		p.File.Translate.Provider = p.Env.Provider
	}
	if p.Env.RedisURL != "" {
		p.File.Cache.RedisURL = p.Env.RedisURL
	}
	if p.Env.CacheDB != "" {
		p.File.Cache.Path = p.Env.CacheDB
	}
	if p.Env.Proxy != "" {
		p.File.Translate.Proxy = p.Env.Proxy
	}
}

func (p *Project) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

// SourcePath returns the absolute template ARB path.
func (p *Project) SourcePath() string {
	return p.abs(p.File.ARB.SourcePath)
}

// Layout returns the ARB file layout for a source language code.
func (p *Project) Layout(sourceCode string) arbfile.Layout {
	l := arbfile.LayoutFromSource(p.SourcePath(), sourceCode)
	if p.File.ARB.Prefix != "" {
		l.Prefix = p.File.ARB.Prefix
	}
	l.Custom = p.File.ARB.Custom
	return l
}

// Excluded reports whether code is listed in arb.exclude.
func (p *Project) Excluded(code string) bool {
	for _, c := range p.File.ARB.Exclude {
		if c == code {
			return true
		}
	}
	return false
}

// EncodeParams reports whether placeholders are shielded.
func (p *Project) EncodeParams() bool {
	if p.File.Translate.EncodeParams == nil {
		return true
	}
	return *p.File.Translate.EncodeParams
}

// StateDir returns the .arbkit directory of the project.
func (p *Project) StateDir() string {
	return filepath.Join(p.Root, history.Dir)
}

// CacheOptions returns the cache backend selection. disabled selects the
// in-memory store.
func (p *Project) CacheOptions(disabled bool) cache.Options {
	c := p.File.Cache
	path := c.Path
	if path == "" {
		path = filepath.Join(p.StateDir(), "cache.db")
	}
	return cache.Options{
		Disabled:    disabled,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.Prefix,
		RedisTTL:    c.TTL,
		SQLitePath:  p.abs(path),
	}
}

// MetadataRoot returns the absolute fastlane metadata directory of pl.
func (p *Project) MetadataRoot(pl metadata.Platform) string {
	dir := pl.DefaultRoot()
	switch {
	case pl == metadata.Android && p.File.Metadata.AndroidDir != "":
		dir = p.File.Metadata.AndroidDir
	case pl == metadata.IOS && p.File.Metadata.IOSDir != "":
		dir = p.File.Metadata.IOSDir
	}
	return p.abs(dir)
}

// MetadataRoots returns the metadata directory of every platform.
func (p *Project) MetadataRoots() map[metadata.Platform]string {
	roots := make(map[metadata.Platform]string, len(metadata.Platforms))
	for _, pl := range metadata.Platforms {
		roots[pl] = p.MetadataRoot(pl)
	}
	return roots
}

// APIKey resolves the Google API key: flagKey, then ARBKIT_GOOGLE_API_KEY,
// then the credential store.
func (p *Project) APIKey(flagKey string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	if p.Env.GoogleAPIKey != "" {
		return p.Env.GoogleAPIKey, nil
	}
	if key := settings.ResolveAPIKey(settings.ProviderGoogle, ""); key != "" {
		return key, nil
	}
	return "", ErrAPIKeyRequired
}
