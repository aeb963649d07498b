package translate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/minios-linux/arbkit/langmeta"
	"github.com/minios-linux/arbkit/metadata"
)

// ---------------------------------------------------------------------------
// Store metadata translation
// ---------------------------------------------------------------------------

// URLPolicy decides what happens to URL fields.
type URLPolicy string

const (
	// URLSkip leaves target URL fields untouched.
	URLSkip URLPolicy = "skip"
	// URLOverride copies the source URL into every target.
	URLOverride URLPolicy = "override"
)

// ParseURLPolicy validates a --url-policy value. Empty means skip.
func ParseURLPolicy(s string) (URLPolicy, error) {
	switch URLPolicy(s) {
	case "", URLSkip:
		return URLSkip, nil
	case URLOverride:
		return URLOverride, nil
	}
	return "", fmt.Errorf("unknown URL policy %q (want skip or override)", s)
}

// MetadataRequest selects what TranslateMetadata translates.
type MetadataRequest struct {
	Platform metadata.Platform
	Root     string
	// Source is the store locale to translate from.
	Source string
	// Targets are store locales. Empty means every other existing locale.
	Targets []string
	// Files limits the fields by file name. Empty means every field.
	Files     []string
	URLPolicy URLPolicy
}

// MetadataSummary is the outcome of a metadata or changelog run.
type MetadataSummary struct {
	Completed []string
	Failed    []string
	// Unsupported lists locales with no provider language.
	Unsupported []string
	// Skipped lists locales never started because the run was cancelled.
	Skipped []string
	APICalls    int
	CacheHits   int
	// Issues are validation problems of the written texts.
	Issues []metadata.Issue
}

func (s *MetadataSummary) add(r Result) {
	s.APICalls += r.APICalls
	s.CacheHits += r.CacheHits
}

func (s *MetadataSummary) err(ctx context.Context) error {
	if len(s.Failed) > 0 {
		return fmt.Errorf("%d locale(s) failed: %s", len(s.Failed), strings.Join(s.Failed, ", "))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run stopped after %d locale(s): %w", len(s.Completed), err)
	}
	return nil
}

// remaining records the locales of a cancelled run that were not started.
func (s *MetadataSummary) remaining(locales []string, source string, opts Options) {
	for _, l := range locales {
		if l != source {
			s.Skipped = append(s.Skipped, l)
		}
	}
	opts.log("Cancelled, %d locale(s) not started", len(s.Skipped))
}

// localeLanguage resolves the catalog language of a store locale.
func localeLanguage(p metadata.Platform, locale string) (langmeta.Language, error) {
	l, ok := p.LookupLocale(locale)
	if !ok {
		return langmeta.Language{}, fmt.Errorf("%s locale %q: %w", p, locale, langmeta.ErrUnknownLanguage)
	}
	if l.Language == "" {
		return langmeta.Language{}, fmt.Errorf("%s locale %s (%s): %w", p, locale, l.Name, langmeta.ErrUnknownLanguage)
	}
	return langmeta.Lookup(l.Language)
}

func targetLocales(root string, p metadata.Platform, source string, targets []string) ([]string, error) {
	if len(targets) > 0 {
		return targets, nil
	}
	all, err := metadata.ListLocales(root, p)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, l := range all {
		if l != source {
			out = append(out, l)
		}
	}
	return out, nil
}

// TranslateLines translates text line by line and joins the result, so
// blank lines and list layout survive.
func TranslateLines(ctx context.Context, gw *Gateway, text string, src, tgt langmeta.Language) (string, Result, error) {
	lines := strings.Split(text, "\n")
	res, err := gw.Translate(ctx, lines, src, tgt)
	if err != nil {
		return "", res, err
	}
	return strings.Join(res.Translated, "\n"), res, nil
}

// TranslateMetadata translates the listing of req.Source into every target
// locale, one locale at a time. Missing target directories and files are
// created once a locale is translated.
//
// Cancelling ctx stops new locales from starting; the locale in flight is
// finished and written.
func TranslateMetadata(ctx context.Context, gw *Gateway, req MetadataRequest, opts Options) (MetadataSummary, error) {
	var sum MetadataSummary

	src, err := metadata.Load(req.Root, req.Platform, req.Source)
	if err != nil {
		return sum, err
	}
	srcLang, err := localeLanguage(req.Platform, req.Source)
	if err != nil {
		return sum, err
	}
	targets, err := targetLocales(req.Root, req.Platform, req.Source, req.Targets)
	if err != nil {
		return sum, err
	}

	for i, locale := range targets {
		if ctx.Err() != nil {
			sum.remaining(targets[i:], req.Source, opts)
			break
		}
		if locale == req.Source {
			continue
		}
		tgtLang, err := localeLanguage(req.Platform, locale)
		if err != nil {
			if errors.Is(err, langmeta.ErrUnknownLanguage) {
				opts.log("Skipping %s: no translation language", locale)
				sum.Unsupported = append(sum.Unsupported, locale)
				continue
			}
			return sum, err
		}

		if err := translateMetadataLocale(context.WithoutCancel(ctx), gw, src, req, locale, srcLang, tgtLang, &sum, opts); err != nil {
			opts.logError("Error translating %s: %v", locale, err)
			sum.Failed = append(sum.Failed, locale)
			continue
		}
		sum.Completed = append(sum.Completed, locale)
	}
	return sum, sum.err(ctx)
}

func translateMetadataLocale(ctx context.Context, gw *Gateway, src *metadata.Metadata, req MetadataRequest,
	locale string, srcLang, tgtLang langmeta.Language, sum *MetadataSummary, opts Options) error {
	dst, err := metadata.Load(req.Root, req.Platform, locale)
	if errors.Is(err, metadata.ErrLocaleNotFound) {
		dst, err = metadata.New(req.Root, req.Platform, locale), nil
	}
	if err != nil {
		return err
	}

	for _, st := range src.Texts {
		if len(req.Files) > 0 && !slices.Contains(req.Files, st.Field.FileName) {
			continue
		}
		if !st.Exists || strings.TrimSpace(st.Text) == "" {
			continue
		}
		dt, _ := dst.Get(st.Field.FileName)

		if st.Field.Type == metadata.TypeURL {
			if req.URLPolicy == URLOverride {
				dt.Text = st.Text
			}
			continue
		}

		text, res, err := TranslateLines(ctx, gw, st.Text, srcLang, tgtLang)
		sum.add(res)
		if err != nil {
			return fmt.Errorf("%s: %w", st.Field.FileName, err)
		}
		dt.Text = text
	}

	if err := dst.SaveAll(); err != nil {
		return err
	}
	opts.log("Saved %s metadata for %s", req.Platform, locale)
	for _, is := range dst.Check() {
		if is.Result.Kind == metadata.Overflow || is.Result.Kind == metadata.InvalidURL {
			sum.Issues = append(sum.Issues, is)
		}
	}
	return nil
}

// ChangelogRequest selects what TranslateChangelog translates.
type ChangelogRequest struct {
	Platform metadata.Platform
	Root     string
	Source   string
	// Build is the Android version code. Unused on iOS.
	Build   string
	Targets []string
}

// TranslateChangelog translates the release notes of req.Source into every
// target locale. Cancellation behaves as in TranslateMetadata.
func TranslateChangelog(ctx context.Context, gw *Gateway, req ChangelogRequest, opts Options) (MetadataSummary, error) {
	var sum MetadataSummary

	src, err := metadata.LoadChangelog(req.Root, req.Platform, req.Source, req.Build)
	if err != nil {
		return sum, err
	}
	if !src.Exists || strings.TrimSpace(src.Text) == "" {
		return sum, fmt.Errorf("%s: %w", src.Path, errEmptyChangelog)
	}
	srcLang, err := localeLanguage(req.Platform, req.Source)
	if err != nil {
		return sum, err
	}
	targets, err := targetLocales(req.Root, req.Platform, req.Source, req.Targets)
	if err != nil {
		return sum, err
	}

	for i, locale := range targets {
		if ctx.Err() != nil {
			sum.remaining(targets[i:], req.Source, opts)
			break
		}
		if locale == req.Source {
			continue
		}
		tgtLang, err := localeLanguage(req.Platform, locale)
		if err != nil {
			opts.log("Skipping %s: no translation language", locale)
			sum.Unsupported = append(sum.Unsupported, locale)
			continue
		}

		text, res, err := TranslateLines(context.WithoutCancel(ctx), gw, src.Text, srcLang, tgtLang)
		sum.add(res)
		if err == nil {
			err = saveChangelog(req, locale, text, &sum)
		}
		if err != nil {
			opts.logError("Error translating %s: %v", locale, err)
			sum.Failed = append(sum.Failed, locale)
			continue
		}
		opts.log("Saved changelog for %s", locale)
		sum.Completed = append(sum.Completed, locale)
	}
	return sum, sum.err(ctx)
}

var errEmptyChangelog = errors.New("source changelog is empty")

func saveChangelog(req ChangelogRequest, locale, text string, sum *MetadataSummary) error {
	if _, err := metadata.Create(req.Root, req.Platform, locale); err != nil {
		return err
	}
	t := metadata.Text{
		Field:  metadata.ChangelogField(req.Platform, req.Build),
		Path:   metadata.ChangelogPath(req.Root, req.Platform, locale, req.Build),
		Text:   text,
		Exists: true,
	}
	if err := metadata.SaveChangelog(t); err != nil {
		return err
	}
	if r := metadata.Validate(t); r.Kind != metadata.Normal {
		sum.Issues = append(sum.Issues, metadata.Issue{Platform: req.Platform, Locale: locale, Path: t.Path, Field: t.Field, Result: r})
	}
	return nil
}
