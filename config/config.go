// Package config implements auto-detection of Flutter project settings
// from pubspec.yaml, l10n.yaml and the existing ARB directory, and loading
// of the .arbkit.yaml project file.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/metadata"
)

const (
	// DefaultARBDir is the gen-l10n default arb-dir.
	DefaultARBDir = "lib/l10n"
	// DefaultTemplate is the gen-l10n default template-arb-file.
	DefaultTemplate = "app_en.arb"
)

// Detected holds auto-detected project settings.
type Detected struct {
	// Root is the absolute project directory.
	Root string
	// Name and Version come from pubspec.yaml, falling back to the
	// directory name and "0.0.0".
	Name    string
	Version string
	// ARBDir is the directory holding the ARB files.
	ARBDir string
	// Template is the source ARB file name inside ARBDir.
	Template string
	// SourceLang is the template's @@locale, or the code in its name.
	SourceLang string
	// Languages lists the codes of existing ARB files, sorted.
	Languages []string
	// HasL10nYAML reports whether l10n.yaml was found.
	HasL10nYAML bool
	// Platforms lists the fastlane metadata trees present.
	Platforms []metadata.Platform
}

// SourcePath returns the template ARB path relative to Root.
func (d *Detected) SourcePath() string {
	rel, err := filepath.Rel(d.Root, filepath.Join(d.ARBDir, d.Template))
	if err != nil {
		return filepath.Join(d.ARBDir, d.Template)
	}
	return rel
}

// File returns a project file for the detected settings.
func (d *Detected) File() *File {
	return &File{ARB: ARBConfig{SourcePath: d.SourcePath()}}
}

type pubspec struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type l10nYAML struct {
	ARBDir   string `yaml:"arb-dir"`
	Template string `yaml:"template-arb-file"`
}

// Detect auto-detects project settings from rootDir.
func Detect(rootDir string) *Detected {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		absRoot = rootDir
	}

	d := &Detected{
		Root:     absRoot,
		ARBDir:   filepath.Join(absRoot, DefaultARBDir),
		Template: DefaultTemplate,
	}

	var ps pubspec
	if readYAML(filepath.Join(absRoot, "pubspec.yaml"), &ps) == nil {
		d.Name = ps.Name
		// Drop the build number: "1.2.3+45" -> "1.2.3".
		d.Version, _, _ = strings.Cut(ps.Version, "+")
	}
	if d.Name == "" {
		d.Name = filepath.Base(absRoot)
	}
	if d.Version == "" {
		d.Version = "0.0.0"
	}

	var l l10nYAML
	if readYAML(filepath.Join(absRoot, "l10n.yaml"), &l) == nil {
		d.HasL10nYAML = true
		if l.ARBDir != "" {
			d.ARBDir = filepath.Join(absRoot, l.ARBDir)
		}
		if l.Template != "" {
			d.Template = l.Template
		}
	}

	d.SourceLang = TemplateLocale(filepath.Join(d.ARBDir, d.Template))
	if d.SourceLang != "" {
		d.Languages = detectLanguages(arbfile.LayoutFromSource(filepath.Join(d.ARBDir, d.Template), d.SourceLang))
	}

	for _, p := range metadata.Platforms {
		if info, err := os.Stat(filepath.Join(absRoot, p.DefaultRoot())); err == nil && info.IsDir() {
			d.Platforms = append(d.Platforms, p)
		}
	}
	return d
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}

// TemplateLocale returns the @@locale of the template, falling back to
// the part of the file name after the first underscore ("app_en.arb" -> "en").
func TemplateLocale(path string) string {
	if f, err := arbfile.ParseFile(path); err == nil && f.Locale() != "" {
		return f.Locale()
	}
	base := strings.TrimSuffix(filepath.Base(path), ".arb")
	if _, code, ok := strings.Cut(base, "_"); ok {
		return code
	}
	return ""
}

func detectLanguages(l arbfile.Layout) []string {
	entries, err := l.List()
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, e.Code)
	}
	sort.Strings(langs)
	return langs
}
