// Package codec shields structured fragments of a string from a machine
// translation round-trip.
//
// Before a text is sent to a provider, line breaks, ARB placeholders
// ("{name}") and caller-supplied keywords are swapped for short opaque
// tokens drawn from an alphabet the provider leaves alone (emoji, keycaps).
// After translation the tokens are swapped back. Several alphabets are tried
// in order and the attempt that kept the most tokens intact wins.
package codec

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

// Dictionary maps a token to the original substring it replaced.
type Dictionary map[string]string

// Alphabet is an ordered set of base tokens. An empty alphabet disables
// replacement: matches are still counted and recorded as identity entries.
type Alphabet []string

// Options controls Encode.
type Options struct {
	// Alphabet supplies the tokens.
	Alphabet Alphabet
	// EncodeParams also shields ARB placeholders such as {name}.
	EncodeParams bool
	// Exclude lists compiled keyword patterns, applied after placeholders.
	Exclude []*regexp.Regexp
}

var (
	lineBreakRe   = regexp.MustCompile(`\n`)
	placeholderRe = regexp.MustCompile(`\{(.+?)\}`)
)

// CompileExclusions compiles keyword patterns case-insensitively.
func CompileExclusions(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("exclusion pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Token returns the n-th token of a. Once the base tokens are used up,
// tokens are composed from several entries joined by "_".
func (a Alphabet) Token(n int) string {
	size := len(a)
	if n < size {
		return a[n]
	}
	return a.Token(n/size) + "_" + a[n%size]
}

// encoder carries the state of one Encode call across its passes.
type encoder struct {
	alphabet Alphabet
	dict     Dictionary
	reverse  map[string]string
	matches  int
}

// pass replaces the matches of re. Tokens placed by earlier passes are
// skipped: re only sees the text between them, so a pattern such as \d+
// cannot match the digit inside a keycap token.
func (e *encoder) pass(text string, re *regexp.Regexp) string {
	tokenRe := e.tokenPattern()
	if tokenRe == nil {
		return e.replace(text, re)
	}
	var b strings.Builder
	last := 0
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		b.WriteString(e.replace(text[last:loc[0]], re))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(e.replace(text[last:], re))
	return b.String()
}

func (e *encoder) replace(text string, re *regexp.Regexp) string {
	if text == "" {
		return ""
	}
	return re.ReplaceAllStringFunc(text, func(match string) string {
		e.matches++
		if len(e.alphabet) == 0 {
			e.dict[match] = match
			return match
		}
		if token, ok := e.reverse[match]; ok {
			return token
		}
		token := e.alphabet.Token(len(e.dict))
		e.dict[token] = match
		e.reverse[match] = token
		return token
	})
}

// tokenPattern matches any token placed so far, longest first. It is nil
// when nothing was replaced.
func (e *encoder) tokenPattern() *regexp.Regexp {
	if len(e.alphabet) == 0 || len(e.dict) == 0 {
		return nil
	}
	tokens := e.dict.tokensByLength()
	for i, t := range tokens {
		tokens[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(strings.Join(tokens, "|"))
}

// Encode replaces line breaks, placeholders (when enabled) and exclusion
// matches with tokens, in that order. It returns the encoded text, the
// token dictionary and the number of matches found, repeats included.
func Encode(text string, opts Options) (string, Dictionary, int) {
	e := &encoder{
		alphabet: opts.Alphabet,
		dict:     make(Dictionary),
		reverse:  make(map[string]string),
	}
	if text == "" {
		return "", e.dict, 0
	}

	text = e.pass(text, lineBreakRe)
	if opts.EncodeParams {
		text = e.pass(text, placeholderRe)
	}
	for _, re := range opts.Exclude {
		text = e.pass(text, re)
	}
	return text, e.dict, e.matches
}

// tokensByLength returns dictionary tokens, longest first.
func (d Dictionary) tokensByLength() []string {
	tokens := make([]string, 0, len(d))
	for k := range d {
		tokens = append(tokens, k)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}

var punctuation = strings.NewReplacer(
	"（", "(",
	"）", ")",
	"！", "!",
	"？", "?",
)

// Decode restores tokens, longest first so a short token never breaks a
// composed one, then unescapes HTML entities and folds fullwidth brackets,
// exclamation and question marks to ASCII.
func Decode(text string, dict Dictionary) string {
	for _, token := range dict.tokensByLength() {
		text = strings.ReplaceAll(text, token, dict[token])
	}
	text = html.UnescapeString(text)
	return punctuation.Replace(text)
}

// Survivors counts how many tokens of dict appear in text. Longer tokens
// are counted first and blanked out, so parts of a composed token are not
// counted twice.
func Survivors(text string, dict Dictionary) int {
	n := 0
	for _, token := range dict.tokensByLength() {
		c := strings.Count(text, token)
		if c == 0 {
			continue
		}
		n += c
		text = strings.ReplaceAll(text, token, "\x00")
	}
	return n
}
