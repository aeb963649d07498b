package arbfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout resolves ARB file paths for language codes.
//
// All ARB files live in Dir. The file for code is <Prefix><code>.arb unless
// Custom maps the code to another file name (with or without ".arb").
type Layout struct {
	Dir    string
	Prefix string
	Custom map[string]string
}

// Entry is one ARB file found in a Layout directory.
type Entry struct {
	Code string
	Path string
}

// LayoutFromSource derives Dir and Prefix from the source file path. The
// prefix is everything before sourceCode in the base name, e.g.
// "lib/l10n/intl_en.arb" with code "en" gives prefix "intl_".
func LayoutFromSource(sourcePath, sourceCode string) Layout {
	base := strings.TrimSuffix(filepath.Base(sourcePath), ".arb")
	prefix := strings.TrimSuffix(base, sourceCode)
	return Layout{Dir: filepath.Dir(sourcePath), Prefix: prefix}
}

// Path returns the ARB file path for code.
func (l Layout) Path(code string) string {
	if name, ok := l.Custom[code]; ok && name != "" {
		if !strings.HasSuffix(name, ".arb") {
			name += ".arb"
		}
		return filepath.Join(l.Dir, name)
	}
	return filepath.Join(l.Dir, l.Prefix+code+".arb")
}

// CodeOf maps an ARB file name (or path) back to a language code.
// Reports false when the name follows neither the custom mapping nor the
// prefix convention.
func (l Layout) CodeOf(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ".arb") {
		return "", false
	}
	stem := strings.TrimSuffix(base, ".arb")
	for code, custom := range l.Custom {
		if strings.TrimSuffix(custom, ".arb") == stem {
			return code, true
		}
	}
	if !strings.HasPrefix(stem, l.Prefix) {
		return "", false
	}
	code := strings.TrimPrefix(stem, l.Prefix)
	if code == "" {
		return "", false
	}
	return code, true
}

// List returns every ARB file in Dir whose name maps to a code, sorted by code.
func (l Layout) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.Dir, err)
	}
	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		code, ok := l.CodeOf(de.Name())
		if !ok {
			continue
		}
		out = append(out, Entry{Code: code, Path: filepath.Join(l.Dir, de.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
