package codec

import (
	"context"
	"fmt"
)

// Strategy is a named alphabet.
type Strategy struct {
	Name     string
	Alphabet Alphabet
}

// EmojiAlphabet is tried first: providers copy emoji through unchanged.
var EmojiAlphabet = Alphabet{
	"🍇", "🍈", "🍉", "🍊", "🍋", "🍌", "🍍", "🥭", "🍎", "🍏",
	"🍐", "🍑", "🍒", "🍓", "🥝", "🍅", "🥥", "🥑", "🍆", "🥔",
	"🥕", "🌽", "🥒", "🥬", "🥦", "🧄", "🧅", "🍄", "🥜", "🌰",
	"🍞", "🥐", "🥖", "🥨", "🥯", "🥞", "🧇", "🧀", "🍖", "🍗",
}

// KeycapAlphabet is the fallback for text that already contains emoji or
// when a provider rewrites emoji tokens.
var KeycapAlphabet = Alphabet{
	"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "#️⃣", "*️⃣",
}

// Strategies is the ordered list tried by Run.
var Strategies = []Strategy{
	{Name: "emoji", Alphabet: EmojiAlphabet},
	{Name: "keycap", Alphabet: KeycapAlphabet},
	{Name: "plain"},
}

// Attempt is the outcome of sending one encoding of a text to a provider.
type Attempt struct {
	Strategy   string
	Encoded    string
	Translated string
	Dict       Dictionary
	// Matches is the number of shielded fragments, repeats included.
	Matches int
	// Survived is the number of tokens found in Translated.
	Survived int
}

// Perfect reports whether every token came back.
func (a Attempt) Perfect() bool {
	return a.Survived == a.Matches
}

// Select picks the best attempt: the first perfect one, otherwise the one
// with the most surviving tokens, earliest first on ties.
func Select(attempts []Attempt) (Attempt, bool) {
	if len(attempts) == 0 {
		return Attempt{}, false
	}
	best := attempts[0]
	for i, a := range attempts {
		if a.Perfect() {
			return a, true
		}
		if i > 0 && a.Survived > best.Survived {
			best = a
		}
	}
	return best, false
}

// TranslateFunc sends encoded text to a provider.
type TranslateFunc func(ctx context.Context, encoded string) (string, error)

// Result is the decoded outcome of Run.
type Result struct {
	Text     string
	Perfect  bool
	Best     Attempt
	Attempts int
}

// Run encodes text with each strategy in turn and translates it with fn,
// stopping at the first perfect attempt. The best attempt is decoded.
// An imperfect result is not an error; callers may log it.
func Run(ctx context.Context, text string, strategies []Strategy, opts Options, fn TranslateFunc) (Result, error) {
	if len(strategies) == 0 {
		strategies = []Strategy{{Name: "plain"}}
	}

	var attempts []Attempt
	for _, s := range strategies {
		o := opts
		o.Alphabet = s.Alphabet
		encoded, dict, matches := Encode(text, o)

		translated, err := fn(ctx, encoded)
		if err != nil {
			return Result{}, fmt.Errorf("%s encoding: %w", s.Name, err)
		}

		a := Attempt{
			Strategy:   s.Name,
			Encoded:    encoded,
			Translated: translated,
			Dict:       dict,
			Matches:    matches,
			Survived:   Survivors(translated, dict),
		}
		attempts = append(attempts, a)
		if a.Perfect() {
			break
		}
	}

	best, perfect := Select(attempts)
	return Result{
		Text:     Decode(best.Translated, best.Dict),
		Perfect:  perfect,
		Best:     best,
		Attempts: len(attempts),
	}, nil
}
