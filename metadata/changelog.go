package metadata

import (
	"fmt"
	"os"
	"path/filepath"
)

// AndroidChangelogMaxLength is the Play Store limit for "What's new".
const AndroidChangelogMaxLength = 500

// ChangelogField returns the field rules for release notes on p.
// Android keeps one file per build under changelogs/, iOS a single
// release_notes.txt.
func ChangelogField(p Platform, build string) Field {
	if p == IOS {
		f, _ := IOS.Field("release_notes.txt")
		f.Optional = false
		return f
	}
	return Field{
		FileName:  build + ".txt",
		MaxLength: AndroidChangelogMaxLength,
		Type:      TypeText,
	}
}

// ChangelogPath returns the release notes file of locale for build.
func ChangelogPath(root string, p Platform, locale, build string) string {
	if p == IOS {
		return filepath.Join(root, locale, "release_notes.txt")
	}
	return filepath.Join(root, locale, "changelogs", build+".txt")
}

// LoadChangelog reads the release notes of locale for build.
func LoadChangelog(root string, p Platform, locale, build string) (Text, error) {
	if p == Android && build == "" {
		return Text{}, fmt.Errorf("android changelog needs a build number")
	}
	if _, err := os.Stat(filepath.Join(root, locale)); err != nil {
		return Text{}, fmt.Errorf("%s %s: %w", p, locale, ErrLocaleNotFound)
	}
	return readText(ChangelogPath(root, p, locale, build), ChangelogField(p, build))
}

// SaveChangelog writes t, creating the changelogs directory if needed.
func SaveChangelog(t Text) error {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(t.Path), err)
	}
	if err := os.WriteFile(t.Path, []byte(t.Text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", t.Path, err)
	}
	return nil
}

// CheckChangelogs validates the release notes of build in every existing
// locale of every platform.
func CheckChangelogs(roots map[Platform]string, build string) ([]Issue, error) {
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
			t, err := LoadChangelog(root, p, locale, build)
			if err != nil {
				return nil, err
			}
			r := Validate(t)
			if r.Kind == Normal {
				continue
			}
			issues = append(issues, Issue{Platform: p, Locale: locale, Path: t.Path, Field: t.Field, Result: r})
		}
	}
	return issues, nil
}
