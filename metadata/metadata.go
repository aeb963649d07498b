package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrLocaleNotFound is returned when a locale directory does not exist.
var ErrLocaleNotFound = errors.New("metadata locale not found")

// Text is the content of one field file.
type Text struct {
	Field  Field
	Path   string
	Text   string
	Exists bool
}

// Metadata is the listing of one platform in one locale.
type Metadata struct {
	Platform Platform
	Locale   string
	Dir      string
	Texts    []Text
}

// Get returns the text of the named field.
func (m *Metadata) Get(fileName string) (*Text, bool) {
	for i := range m.Texts {
		if m.Texts[i].Field.FileName == fileName {
			return &m.Texts[i], true
		}
	}
	return nil, false
}

// Load reads every field file of locale under root. Missing files are
// recorded with Exists=false.
func Load(root string, p Platform, locale string) (*Metadata, error) {
	dir := filepath.Join(root, locale)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", p, locale, ErrLocaleNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", dir, ErrLocaleNotFound)
	}

	m := &Metadata{Platform: p, Locale: locale, Dir: dir}
	for _, f := range p.Fields() {
		t, err := readText(filepath.Join(dir, f.FileName), f)
		if err != nil {
			return nil, err
		}
		m.Texts = append(m.Texts, t)
	}
	return m, nil
}

func readText(path string, f Field) (Text, error) {
	t := Text{Field: f, Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return t, fmt.Errorf("reading %s: %w", path, err)
	}
	t.Text = string(data)
	t.Exists = true
	return t, nil
}

// New returns the empty listing of a locale that has no directory yet.
// Nothing is written until Save or SaveAll.
func New(root string, p Platform, locale string) *Metadata {
	dir := filepath.Join(root, locale)
	m := &Metadata{Platform: p, Locale: locale, Dir: dir}
	for _, f := range p.Fields() {
		m.Texts = append(m.Texts, Text{Field: f, Path: filepath.Join(dir, f.FileName)})
	}
	return m
}

// Create makes the locale directory and any missing field files (empty).
// Returns the paths created.
func Create(root string, p Platform, locale string) ([]string, error) {
	dir := filepath.Join(root, locale)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	var created []string
	for _, f := range p.Fields() {
		path := filepath.Join(dir, f.FileName)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return created, fmt.Errorf("writing %s: %w", path, err)
		}
		created = append(created, path)
	}
	return created, nil
}

// Save writes every text that exists or has content.
func (m *Metadata) Save() error {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", m.Dir, err)
	}
	for i := range m.Texts {
		t := &m.Texts[i]
		if !t.Exists && t.Text == "" {
			continue
		}
		if err := os.WriteFile(t.Path, []byte(t.Text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", t.Path, err)
		}
		t.Exists = true
	}
	return nil
}

// SaveAll is Save, but also writes an empty file for every missing field,
// like Create.
func (m *Metadata) SaveAll() error {
	for i := range m.Texts {
		m.Texts[i].Exists = true
	}
	return m.Save()
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Kind classifies a field.
type Kind string

const (
	Normal     Kind = "normal"
	Required   Kind = "required"
	InvalidURL Kind = "invalidURL"
	Overflow   Kind = "overflow"
	NotExist   Kind = "notExist"
)

// Result is the outcome of validating one text.
type Result struct {
	Kind Kind
	// Overflow is the number of characters over the limit.
	Overflow int
}

// Validate classifies t. Length is counted in characters (runes).
func Validate(t Text) Result {
	if !t.Exists {
		return Result{Kind: NotExist}
	}
	if t.Text == "" {
		if t.Field.Optional {
			return Result{Kind: Normal}
		}
		return Result{Kind: Required}
	}
	if t.Field.Type == TypeURL && !strings.HasPrefix(t.Text, "http") {
		return Result{Kind: InvalidURL}
	}
	if t.Field.MaxLength > 0 {
		if n := utf8.RuneCountInString(t.Text); n > t.Field.MaxLength {
			return Result{Kind: Overflow, Overflow: n - t.Field.MaxLength}
		}
	}
	return Result{Kind: Normal}
}

// Issue is a validation problem found on disk.
type Issue struct {
	Platform Platform
	Locale   string
	Path     string
	Field    Field
	Result   Result
}

func (i Issue) String() string {
	switch i.Result.Kind {
	case Overflow:
		return fmt.Sprintf("%s/%s/%s: %d characters over the %d limit",
			i.Platform, i.Locale, i.Field.FileName, i.Result.Overflow, i.Field.MaxLength)
	case Required:
		return fmt.Sprintf("%s/%s/%s: required but empty", i.Platform, i.Locale, i.Field.FileName)
	case InvalidURL:
		return fmt.Sprintf("%s/%s/%s: not an http(s) URL", i.Platform, i.Locale, i.Field.FileName)
	case NotExist:
		return fmt.Sprintf("%s/%s/%s: file missing", i.Platform, i.Locale, i.Field.FileName)
	}
	return fmt.Sprintf("%s/%s/%s: ok", i.Platform, i.Locale, i.Field.FileName)
}

// Check validates every text of m and returns the problems.
func (m *Metadata) Check() []Issue {
	var issues []Issue
	for _, t := range m.Texts {
		r := Validate(t)
		if r.Kind == Normal {
			continue
		}
		issues = append(issues, Issue{
			Platform: m.Platform,
			Locale:   m.Locale,
			Path:     t.Path,
			Field:    t.Field,
			Result:   r,
		})
	}
	return issues
}

// ListLocales returns the known store locales of p that have a directory
// under root, sorted. A missing root yields no locales.
func ListLocales(root string, p Platform) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := p.LookupLocale(e.Name()); ok {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// CheckAll validates every existing locale of every platform. roots maps a
// platform to its metadata directory; platforms without a root are skipped.
func CheckAll(roots map[Platform]string) ([]Issue, error) {
	var issues []Issue
	for _, p := range Platforms {
		root, ok := roots[p]
		if !ok {
			continue
		}
		locales, err := ListLocales(root, p)
		if err != nil {
			return nil, err
		}
		for _, locale := range locales {
			m, err := Load(root, p, locale)
			if err != nil {
				return nil, err
			}
			issues = append(issues, m.Check()...)
		}
	}
	return issues, nil
}
