package translate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/delta"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/langmeta"
)

// ---------------------------------------------------------------------------
// Flutter ARB translation
// ---------------------------------------------------------------------------

// ARBSource is the template ARB file every language is derived from.
type ARBSource struct {
	Language langmeta.Language
	Path     string
	File     *arbfile.File
}

// ARBTask holds a single target language.
type ARBTask struct {
	Language langmeta.Language
	// Path is where the translated file is written.
	Path string
	// Target is the current file content, nil if the file does not exist.
	Target *arbfile.File
}

// LangResult is the outcome of one language.
type LangResult struct {
	Code    string
	Stats   delta.Stats
	Written bool
	Err     error
}

// Summary is the outcome of TranslateAllARB.
type Summary struct {
	Languages []LangResult
	Total     delta.Stats
	Completed []string
	Failed    []string
	// Skipped lists languages never started because the run was cancelled.
	Skipped []string
	// HistorySaved reports whether the history now holds the source snapshot.
	HistorySaved bool
}

func historyOf(hist *history.Snapshot) delta.History {
	if hist == nil {
		return nil
	}
	return hist
}

// TranslateAllARB translates the tasks one language at a time.
//
// Cancelling ctx stops new languages from starting; the language in flight
// is finished and written. Once at least one language completed, the
// history is replaced by the source snapshot, except for keys still queued
// for a failed or skipped language: those keep their previous value so the
// next run translates them again.
func TranslateAllARB(ctx context.Context, source ARBSource, hist *history.Snapshot, tasks []ARBTask, gw *Gateway, opts Options) (Summary, error) {
	var sum Summary
	h := historyOf(hist)
	var hold []string
	holdPending := func(task ARBTask) {
		hold = append(hold, delta.Compute(source.File, h, task.Target, task.Language.Code).Keys()...)
	}

	for i, task := range tasks {
		if ctx.Err() != nil {
			for _, rest := range tasks[i:] {
				if rest.Language.Code == source.Language.Code {
					continue
				}
				sum.Skipped = append(sum.Skipped, rest.Language.Code)
				holdPending(rest)
			}
			opts.log("Cancelled, %d language(s) not started", len(sum.Skipped))
			break
		}
		if task.Language.Code == source.Language.Code {
			continue
		}

		lr := translateARBLanguage(context.WithoutCancel(ctx), source, h, task, gw, opts)
		sum.Languages = append(sum.Languages, lr)
		sum.Total.Add(lr.Stats)
		if lr.Err != nil {
			opts.logError("Error translating %s: %v", task.Language.Code, lr.Err)
			sum.Failed = append(sum.Failed, task.Language.Code)
			holdPending(task)
			continue
		}
		sum.Completed = append(sum.Completed, task.Language.Code)
	}

	if len(sum.Completed) > 0 && hist != nil {
		hist.ReplaceHolding(source.File, hold)
		if err := hist.Save(); err != nil {
			return sum, fmt.Errorf("saving history: %w", err)
		}
		sum.HistorySaved = true
	}

	if len(sum.Failed) > 0 {
		return sum, fmt.Errorf("%d language(s) failed: %s", len(sum.Failed), strings.Join(sum.Failed, ", "))
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run stopped after %d language(s): %w", len(sum.Completed), err)
	}
	return sum, nil
}

func translateARBLanguage(ctx context.Context, source ARBSource, h delta.History, task ARBTask, gw *Gateway, opts Options) LangResult {
	lr := LangResult{Code: task.Language.Code}
	plan := delta.Compute(source.File, h, task.Target, task.Language.Code)
	lr.Stats = plan.Stats

	var translations []string
	if !plan.Empty() {
		opts.log("Translating %s: %s", task.Language, plan.Stats)
		res, err := gw.Translate(ctx, plan.Queries(), source.Language, task.Language)
		lr.Stats.APICalls = res.APICalls
		lr.Stats.CacheHits = res.CacheHits
		if err != nil {
			lr.Err = err
			return lr
		}
		translations = res.Translated
	}

	doc, err := plan.Apply(translations)
	if err != nil {
		lr.Err = err
		return lr
	}

	if plan.Empty() && task.Target != nil && sameContent(doc, task.Target) {
		opts.debug("%s is up to date", task.Path)
		return lr
	}

	if err := doc.WriteFile(task.Path); err != nil {
		lr.Err = fmt.Errorf("saving %s: %w", task.Path, err)
		return lr
	}
	lr.Written = true
	total, translated, _ := doc.Stats()
	opts.log("Saved %s (%d/%d translated)", task.Path, translated, total)
	return lr
}

func sameContent(a, b *arbfile.File) bool {
	ab, err := a.Marshal()
	if err != nil {
		return false
	}
	bb, err := b.Marshal()
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// LangPreview is the planned work for one language.
type LangPreview struct {
	Language langmeta.Language
	Path     string
	Exists   bool
	Stats    delta.Stats
}

// Preview computes what TranslateAllARB would do without calling the
// provider.
func Preview(source ARBSource, hist *history.Snapshot, tasks []ARBTask) []LangPreview {
	h := historyOf(hist)
	var out []LangPreview
	for _, task := range tasks {
		if task.Language.Code == source.Language.Code {
			continue
		}
		plan := delta.Compute(source.File, h, task.Target, task.Language.Code)
		out = append(out, LangPreview{
			Language: task.Language,
			Path:     task.Path,
			Exists:   task.Target != nil,
			Stats:    plan.Stats,
		})
	}
	return out
}
