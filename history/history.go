// Package history implements .arbkit/history.json, a snapshot of the source
// ARB content as it was at the end of the last successful translation run.
//
// The snapshot lets a run detect strings that did not change since they were
// last translated: a key whose history value equals its current source value,
// and which already exists in the target file, is not sent to the provider
// again.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minios-linux/arbkit/arbfile"
)

// Dir is the per-project state directory.
const Dir = ".arbkit"

// FileName is the history file name inside Dir.
const FileName = "history.json"

// Version is the current history format version.
const Version = 1

// ErrMigration is returned when a legacy history file cannot be upgraded.
var ErrMigration = errors.New("history migration failed")

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Snapshot is the persisted source snapshot.
type Snapshot struct {
	Version   int               `json:"version"`
	RunID     string            `json:"run_id,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitzero"`
	Keys      []string          `json:"keys"`
	Data      map[string]string `json:"data"`

	mu   sync.Mutex
	path string
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Path returns the history path for a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, Dir, FileName)
}

// Load reads the history of the project in projectDir.
// Returns an empty snapshot if the file doesn't exist.
func Load(projectDir string) (*Snapshot, error) {
	return LoadFile(Path(projectDir))
}

// LoadFile reads a history file from path.
// Returns an empty snapshot if the file doesn't exist.
func LoadFile(path string) (*Snapshot, error) {
	s := &Snapshot{
		Version: Version,
		Data:    make(map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rawVersion, versioned := probe["version"]
	if !versioned {
		if err := s.migrateV0(data); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrMigration, err)
		}
		return s, nil
	}

	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return nil, fmt.Errorf("%s: %w: bad version field: %v", path, ErrMigration, err)
	}
	if version > Version || version < 1 {
		return nil, fmt.Errorf("%s: %w: unsupported version %d", path, ErrMigration, version)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s.path = path
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.normalizeKeys()
	return s, nil
}

// migrateV0 upgrades the legacy format: a plain copy of the source ARB
// object. Non-string translatable values cannot be represented and fail
// the upgrade.
func (s *Snapshot) migrateV0(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for k, v := range values {
		if arbfile.IsMetaKey(k) {
			continue
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("key %q has non-string value %T", k, v)
		}
	}
	doc, err := arbfile.Parse(data)
	if err != nil {
		return err
	}
	s.Version = Version
	s.Keys = doc.Keys()
	s.Data = doc.Values()
	return nil
}

// normalizeKeys makes Keys and Data agree. Keys listed without data are
// dropped; data without a listed key is appended in sorted order.
func (s *Snapshot) normalizeKeys() {
	listed := make(map[string]bool, len(s.Keys))
	keys := s.Keys[:0]
	for _, k := range s.Keys {
		if _, ok := s.Data[k]; ok && !listed[k] {
			keys = append(keys, k)
			listed[k] = true
		}
	}
	var extra []string
	for k := range s.Data {
		if !listed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	s.Keys = append(keys, extra...)
}

// Save writes the snapshot to disk, replacing the previous file.
func (s *Snapshot) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("history path not set")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// Path returns the history file path.
func (s *Snapshot) Path() string {
	return s.path
}

// ---------------------------------------------------------------------------
// Lookups and updates
// ---------------------------------------------------------------------------

// Has reports whether key was part of the last snapshot.
func (s *Snapshot) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Data[key]
	return ok
}

// Value returns the source value recorded for key.
func (s *Snapshot) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Data[key]
	return v, ok
}

// Len returns the number of recorded keys.
func (s *Snapshot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Data)
}

// Replace swaps in the translatable content of doc as the new snapshot and
// stamps a fresh run ID. The previous content is discarded entirely.
func (s *Snapshot) Replace(doc *arbfile.File) {
	keys := doc.Keys()
	data := doc.Values()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Version = Version
	s.RunID = uuid.NewString()
	s.UpdatedAt = time.Now().UTC()
	s.Keys = keys
	s.Data = data
}

// ReplaceHolding is Replace, except that the keys in hold keep their
// previous value, or stay unrecorded if they had none. A held key therefore
// still differs from the source on the next run.
func (s *Snapshot) ReplaceHolding(doc *arbfile.File, hold []string) {
	if len(hold) == 0 {
		s.Replace(doc)
		return
	}
	held := make(map[string]bool, len(hold))
	for _, k := range hold {
		held[k] = true
	}
	data := doc.Values()

	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(data))
	for _, k := range doc.Keys() {
		if held[k] {
			old, ok := s.Data[k]
			if !ok {
				delete(data, k)
				continue
			}
			data[k] = old
		}
		keys = append(keys, k)
	}
	s.Version = Version
	s.RunID = uuid.NewString()
	s.UpdatedAt = time.Now().UTC()
	s.Keys = keys
	s.Data = data
}

// RenameKeys renames recorded keys, keeping their positions.
// Keys that are not recorded are ignored.
func (s *Snapshot) RenameKeys(oldKeys, newKeys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, oldKey := range oldKeys {
		if i >= len(newKeys) {
			break
		}
		v, ok := s.Data[oldKey]
		if !ok {
			continue
		}
		newKey := newKeys[i]
		delete(s.Data, oldKey)
		s.Data[newKey] = v
		for j, k := range s.Keys {
			if k == oldKey {
				s.Keys[j] = newKey
			}
		}
	}
}

// DeleteKeys removes keys from the snapshot.
func (s *Snapshot) DeleteKeys(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
		delete(s.Data, k)
	}
	kept := s.Keys[:0]
	for _, k := range s.Keys {
		if !drop[k] {
			kept = append(kept, k)
		}
	}
	s.Keys = kept
}

// Summary returns a human-readable summary string.
func (s *Snapshot) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Data) == 0 {
		return "empty"
	}
	if s.UpdatedAt.IsZero() {
		return fmt.Sprintf("%d keys", len(s.Data))
	}
	return fmt.Sprintf("%d keys, updated %s (run %s)",
		len(s.Data), s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.RunID)
}
