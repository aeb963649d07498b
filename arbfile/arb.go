// Package arbfile implements reading and writing of Flutter ARB (Application
// Resource Bundle) files.
//
// ARB files are JSON files with a specific structure:
//
//   - "@@locale" holds the language code (e.g. "en", "pt_BR").
//   - Keys containing "@" (other than "@@locale") are metadata entries
//     (e.g. "@greeting") and are preserved verbatim, never translated.
//   - All other string values are translatable.
//
// File naming convention: <prefix><code>.arb (e.g. app_en.arb, intl_ru.arb)
// stored in a single directory next to the source file (see Layout).
//
// Round-trip fidelity: key order from the source file is preserved, and
// metadata keys keep their position relative to translatable keys.
package arbfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const localeKey = "@@locale"

var (
	// ErrNotFound is returned when an ARB file or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for malformed key names.
	ErrInvalidKey = errors.New("invalid key")
	// ErrDuplicateKey is returned when a new key name is already taken.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidLocale is returned when @@locale is not a string.
	ErrInvalidLocale = errors.New("@@locale must be a string")
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// entry is a single key in the ARB file.
type entry struct {
	key      string
	value    string // translatable string value
	isMeta   bool   // true for keys containing "@"
	rawValue []byte // original JSON value bytes (preserved for meta)
}

// File represents a parsed ARB file.
type File struct {
	// locale is the value of @@locale.
	locale string
	// entries stores all keys in document order.
	entries []entry
	// index maps key → index in entries.
	index map[string]int
}

// IsMetaKey reports whether key is a metadata key (contains "@").
func IsMetaKey(key string) bool {
	return strings.Contains(key, "@")
}

// New returns an empty document for locale.
func New(locale string) *File {
	return &File{locale: locale, index: make(map[string]int)}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an ARB file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ARB file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses ARB content from a byte slice.
func Parse(data []byte) (*File, error) {
	// Token streaming keeps the document order of keys.
	f := New("")

	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing ARB: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing ARB: expected string key, got %T", keyTok)
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return nil, fmt.Errorf("parsing ARB value for %q: %w", key, err)
		}

		if key == localeKey {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				return nil, fmt.Errorf("parsing ARB: %w, got %s", ErrInvalidLocale, rawVal)
			}
			f.locale = s
			continue
		}

		e := entry{
			key:      key,
			isMeta:   IsMetaKey(key),
			rawValue: rawVal,
		}
		if !e.isMeta {
			var s string
			if err := json.Unmarshal(rawVal, &s); err == nil {
				e.value = s
			}
		}
		if idx, dup := f.index[key]; dup {
			f.entries[idx] = e
			continue
		}
		f.index[key] = len(f.entries)
		f.entries = append(f.entries, e)
	}

	return f, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Locale returns the @@locale value.
func (f *File) Locale() string { return f.locale }

// SetLocale replaces the @@locale value.
func (f *File) SetLocale(locale string) { f.locale = locale }

// Keys returns all translatable (non-metadata) keys in document order.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.entries {
		if !e.isMeta {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len returns the number of translatable keys.
func (f *File) Len() int {
	n := 0
	for _, e := range f.entries {
		if !e.isMeta {
			n++
		}
	}
	return n
}

// UntranslatedKeys returns translatable keys whose value is empty.
func (f *File) UntranslatedKeys() []string {
	var keys []string
	for _, e := range f.entries {
		if !e.isMeta && e.value == "" {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Has reports whether key is a translatable key of f.
func (f *File) Has(key string) bool {
	idx, ok := f.index[key]
	return ok && !f.entries[idx].isMeta
}

// Get returns the string value for a translatable key.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok && !f.entries[idx].isMeta {
		return f.entries[idx].value, true
	}
	return "", false
}

// Set sets the value of an existing translatable key.
// Returns true on success, false if the key is not found or is metadata.
func (f *File) Set(key, value string) bool {
	idx, ok := f.index[key]
	if !ok || f.entries[idx].isMeta {
		return false
	}
	f.entries[idx].value = value
	f.entries[idx].rawValue = nil
	return true
}

// Append sets key to value, adding it at the end when it is new.
// Metadata keys and @@locale are ignored.
func (f *File) Append(key, value string) {
	if key == localeKey || IsMetaKey(key) {
		return
	}
	if f.Set(key, value) {
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, entry{key: key, value: value})
}

// Stats returns (total, translated, percentTranslated).
func (f *File) Stats() (int, int, float64) {
	total, translated := 0, 0
	for _, e := range f.entries {
		if !e.isMeta {
			total++
			if e.value != "" {
				translated++
			}
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(translated) / float64(total) * 100
	}
	return total, translated, pct
}

// Values returns a map of key → value for all translatable keys.
func (f *File) Values() map[string]string {
	m := make(map[string]string, len(f.index))
	for _, e := range f.entries {
		if !e.isMeta {
			m[e.key] = e.value
		}
	}
	return m
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// marshalString encodes s as a JSON string without HTML escaping, so that
// "<b>" and "&" survive verbatim in translated values.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// Marshal serialises the ARB file to JSON with 2-space indentation.
// The @@locale key is always written first.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	first := true
	writeKey := func(key string) {
		if !first {
			buf.WriteString(",")
		}
		first = false
		buf.WriteString("\n  ")
		buf.Write(marshalString(key))
		buf.WriteString(": ")
	}

	if f.locale != "" {
		writeKey(localeKey)
		buf.Write(marshalString(f.locale))
	}

	for _, e := range f.entries {
		writeKey(e.key)
		if e.isMeta {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, e.rawValue, "  ", "  "); err != nil {
				return nil, fmt.Errorf("metadata %q: %w", e.key, err)
			}
			buf.Write(pretty.Bytes())
		} else {
			buf.Write(marshalString(e.value))
		}
	}

	if first {
		buf.WriteString("}\n")
	} else {
		buf.WriteString("\n}\n")
	}
	return buf.Bytes(), nil
}

// WriteFile serialises and writes to path. The file is written to a
// temporary sibling first and renamed into place.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CreateIfNotExist writes a minimal {"@@locale": locale} document to path
// when no file exists there. Reports whether a file was created.
func CreateIfNotExist(path, locale string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := New(locale).WriteFile(path); err != nil {
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Key maintenance
// ---------------------------------------------------------------------------

var keyNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)

// ValidateKeyName checks that name is usable as a generated Dart getter:
// ASCII letters and digits, not starting with a digit.
func ValidateKeyName(name string) error {
	if !keyNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return nil
}

// CheckRename validates a rename of oldKeys to newKeys against f.
// Every old key must exist, every new key must be valid and unused, and
// both lists must be the same length.
func (f *File) CheckRename(oldKeys, newKeys []string) error {
	if len(oldKeys) == 0 {
		return fmt.Errorf("%w: no keys given", ErrInvalidKey)
	}
	if len(oldKeys) != len(newKeys) {
		return fmt.Errorf("%w: %d old keys but %d new keys", ErrInvalidKey, len(oldKeys), len(newKeys))
	}
	seen := make(map[string]bool, len(newKeys))
	for i, oldKey := range oldKeys {
		if !f.Has(oldKey) {
			return fmt.Errorf("key %q: %w", oldKey, ErrNotFound)
		}
		newKey := newKeys[i]
		if err := ValidateKeyName(newKey); err != nil {
			return err
		}
		if f.Has(newKey) || seen[newKey] {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, newKey)
		}
		seen[newKey] = true
	}
	return nil
}

// RenameKeys renames keys in place, keeping their positions. Matching
// "@old" metadata entries are renamed as well. Keys absent from f are
// ignored. Returns the number of translatable keys renamed.
func (f *File) RenameKeys(oldKeys, newKeys []string) int {
	renamed := 0
	for i, oldKey := range oldKeys {
		if i >= len(newKeys) {
			break
		}
		newKey := newKeys[i]
		if f.renameEntry(oldKey, newKey) {
			renamed++
		}
		f.renameEntry("@"+oldKey, "@"+newKey)
	}
	return renamed
}

func (f *File) renameEntry(oldKey, newKey string) bool {
	idx, ok := f.index[oldKey]
	if !ok {
		return false
	}
	if _, taken := f.index[newKey]; taken {
		return false
	}
	f.entries[idx].key = newKey
	delete(f.index, oldKey)
	f.index[newKey] = idx
	return !f.entries[idx].isMeta
}

// DeleteKeys removes keys and their "@key" metadata. Returns the number of
// translatable keys removed.
func (f *File) DeleteKeys(keys []string) int {
	drop := make(map[string]bool, len(keys)*2)
	for _, k := range keys {
		drop[k] = true
		drop["@"+k] = true
	}
	removed := 0
	kept := f.entries[:0]
	for _, e := range f.entries {
		if drop[e.key] {
			if !e.isMeta {
				removed++
			}
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	f.reindex()
	return removed
}

func (f *File) reindex() {
	f.index = make(map[string]int, len(f.entries))
	for i, e := range f.entries {
		f.index[e.key] = i
	}
}

// DecodeHTMLEntities unescapes HTML entities (&amp;, &#39;, ...) in every
// translatable value. Returns the number of values changed.
func (f *File) DecodeHTMLEntities() int {
	changed := 0
	for i, e := range f.entries {
		if e.isMeta {
			continue
		}
		decoded := html.UnescapeString(e.value)
		if decoded != e.value {
			f.entries[i].value = decoded
			f.entries[i].rawValue = nil
			changed++
		}
	}
	return changed
}

var placeholderRe = regexp.MustCompile(`\{(\w+)[},]`)

// Placeholders returns the sorted set of {name} parameters in value.
// For ICU messages ("{count, plural, ...}") only the argument name counts.
func Placeholders(value string) []string {
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(value, -1) {
		seen[m[1]] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
