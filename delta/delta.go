// Package delta decides, for one target language, which source strings need
// translating and assembles the resulting ARB document.
//
// A key is left alone (skip) when its source value equals the value recorded
// in the history snapshot and the target already has it. Every other key is
// queued: as a create when the target lacks it, otherwise as an update. The
// output is rebuilt from the source key order, so keys deleted from the
// source disappear from the target.
package delta

import (
	"fmt"

	"github.com/minios-linux/arbkit/arbfile"
)

// History is the view of the history snapshot the engine needs.
type History interface {
	Value(key string) (string, bool)
}

// Stats counts the outcome of one or more plans.
type Stats struct {
	Skip      int
	Create    int
	Update    int
	APICalls  int
	CacheHits int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Skip += o.Skip
	s.Create += o.Create
	s.Update += o.Update
	s.APICalls += o.APICalls
	s.CacheHits += o.CacheHits
}

// Pending returns the number of keys that need translating.
func (s Stats) Pending() int {
	return s.Create + s.Update
}

func (s Stats) String() string {
	return fmt.Sprintf("create: %d, update: %d, skip: %d (api: %d, cache: %d)",
		s.Create, s.Update, s.Skip, s.APICalls, s.CacheHits)
}

type slot struct {
	key     string
	value   string
	pending bool
}

// Plan is the computed delta for one target language.
type Plan struct {
	Code  string
	Stats Stats

	// Skipped, Created and Updated are disjoint and in source order.
	Skipped []string
	Created []string
	Updated []string

	slots   []slot
	pending []int
}

// Compute classifies every translatable source key against history and
// the existing target document (which may be nil for a new language).
func Compute(source *arbfile.File, hist History, target *arbfile.File, code string) *Plan {
	p := &Plan{Code: code}

	for _, key := range source.Keys() {
		srcValue, _ := source.Get(key)

		var targetValue string
		inTarget := false
		if target != nil {
			targetValue, inTarget = target.Get(key)
		}
		histValue, inHistory := "", false
		if hist != nil {
			histValue, inHistory = hist.Value(key)
		}

		if inTarget && inHistory && histValue == srcValue {
			p.slots = append(p.slots, slot{key: key, value: targetValue})
			p.Skipped = append(p.Skipped, key)
			p.Stats.Skip++
			continue
		}

		p.pending = append(p.pending, len(p.slots))
		p.slots = append(p.slots, slot{key: key, value: srcValue, pending: true})
		if inTarget {
			p.Updated = append(p.Updated, key)
			p.Stats.Update++
		} else {
			p.Created = append(p.Created, key)
			p.Stats.Create++
		}
	}
	return p
}

// Keys returns the keys to translate, in the order of Queries.
func (p *Plan) Keys() []string {
	out := make([]string, len(p.pending))
	for i, idx := range p.pending {
		out[i] = p.slots[idx].key
	}
	return out
}

// Queries returns the source texts to translate.
func (p *Plan) Queries() []string {
	out := make([]string, len(p.pending))
	for i, idx := range p.pending {
		out[i] = p.slots[idx].value
	}
	return out
}

// Empty reports whether nothing needs translating.
func (p *Plan) Empty() bool {
	return len(p.pending) == 0
}

// Apply fills the queued keys with translations, matched by position, and
// returns the complete target document.
func (p *Plan) Apply(translations []string) (*arbfile.File, error) {
	if len(translations) != len(p.pending) {
		return nil, fmt.Errorf("%s: got %d translations for %d queued keys", p.Code, len(translations), len(p.pending))
	}

	doc := arbfile.New(p.Code)
	next := 0
	for _, s := range p.slots {
		value := s.value
		if s.pending {
			value = translations[next]
			next++
		}
		doc.Append(s.key, value)
	}
	return doc, nil
}
