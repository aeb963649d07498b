package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/minios-linux/arbkit/cache"
	"github.com/minios-linux/arbkit/codec"
	"github.com/minios-linux/arbkit/langmeta"
)

// NewLimiter returns a limiter allowing rps provider requests per second,
// or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Gateway turns source strings into target strings: cache first, then the
// provider through the codec strategies.
type Gateway struct {
	Provider Provider
	// Cache may be nil.
	Cache cache.Store
	// Limiter paces provider requests. Nil means unlimited.
	Limiter *rate.Limiter
	// Exclude lists keyword patterns shielded from translation.
	Exclude []*regexp.Regexp
	// EncodeParams shields ARB placeholders.
	EncodeParams bool
	// Strategies overrides codec.Strategies.
	Strategies []codec.Strategy
	Options    Options
}

// Result is the outcome of Gateway.Translate. Translated is parallel to the
// queries.
type Result struct {
	Translated []string
	APICalls   int
	CacheHits  int
}

// Translate resolves every query for the src -> tgt pair, in order. The
// first provider failure aborts the batch.
func (g *Gateway) Translate(ctx context.Context, queries []string, src, tgt langmeta.Language) (Result, error) {
	res := Result{Translated: make([]string, len(queries))}
	for i, q := range queries {
		if strings.TrimSpace(q) == "" {
			res.Translated[i] = q
			g.Options.progress(tgt.Code, i+1, len(queries))
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		// Only the trimmed text is translated and cached; the query keeps
		// its own surrounding whitespace.
		lead, core, trail := splitSpace(q)
		key := cache.Key{SourceLang: src.TranslateTag, TargetLang: tgt.TranslateTag, Text: core}
		if text, ok := g.lookup(ctx, key); ok {
			res.Translated[i] = lead + text + trail
			res.CacheHits++
			g.Options.progress(tgt.Code, i+1, len(queries))
			continue
		}

		text, err := g.translateOne(ctx, core, src, tgt)
		if err != nil {
			return res, err
		}
		res.Translated[i] = lead + text + trail
		res.APICalls++
		g.store(ctx, key, text)
		g.Options.progress(tgt.Code, i+1, len(queries))
	}
	return res, nil
}

func (g *Gateway) strategies() []codec.Strategy {
	if len(g.Strategies) > 0 {
		return g.Strategies
	}
	return codec.Strategies
}

func (g *Gateway) translateOne(ctx context.Context, text string, src, tgt langmeta.Language) (string, error) {
	opts := codec.Options{EncodeParams: g.EncodeParams, Exclude: g.Exclude}
	out, err := codec.Run(ctx, text, g.strategies(), opts, func(ctx context.Context, encoded string) (string, error) {
		if g.Limiter != nil {
			if err := g.Limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		return g.Provider.Translate(ctx, encoded, src.TranslateTag, tgt.TranslateTag)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var fe *FailureError
		if errors.As(err, &fe) {
			return "", fmt.Errorf("%s -> %s: %w", src.Code, tgt.Code, err)
		}
		return "", &FailureError{Provider: g.Provider.Name(), Message: err.Error(), Err: err}
	}

	if !out.Perfect {
		g.Options.log("Not perfect translation for %s: %q (%s, %d/%d tokens kept)",
			tgt.Code, truncate(text, 60), out.Best.Strategy, out.Best.Survived, out.Best.Matches)
	} else {
		g.Options.debug("  %s: %s encoding after %d attempt(s)", tgt.Code, out.Best.Strategy, out.Attempts)
	}
	return out.Text, nil
}

func (g *Gateway) lookup(ctx context.Context, k cache.Key) (string, bool) {
	if g.Cache == nil {
		return "", false
	}
	text, ok, err := g.Cache.Get(ctx, k)
	if err != nil {
		g.Options.logError("Cache read failed: %v", err)
		return "", false
	}
	return text, ok
}

func (g *Gateway) store(ctx context.Context, k cache.Key, text string) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Put(ctx, k, text); err != nil {
		g.Options.logError("Cache write failed: %v", err)
	}
}

// splitSpace splits s into its leading whitespace, the trimmed text and
// its trailing whitespace.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
