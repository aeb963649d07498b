package arbfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ProblemKind classifies a consistency problem of a target file.
type ProblemKind string

const (
	// Missing is a source key absent from the target.
	Missing ProblemKind = "missing"
	// Extra is a target key absent from the source.
	Extra ProblemKind = "extra"
	// Empty is a target key with an empty value.
	Empty ProblemKind = "empty"
	// PlaceholderMismatch is a target value whose {param} set differs
	// from the source value.
	PlaceholderMismatch ProblemKind = "placeholders"
)

// Problem is one consistency problem.
type Problem struct {
	Key  string
	Kind ProblemKind
	// Want and Got are the placeholder sets of a PlaceholderMismatch.
	Want []string
	Got  []string
}

func (p Problem) String() string {
	switch p.Kind {
	case Missing:
		return fmt.Sprintf("%s: missing", p.Key)
	case Extra:
		return fmt.Sprintf("%s: not in source", p.Key)
	case Empty:
		return fmt.Sprintf("%s: empty", p.Key)
	case PlaceholderMismatch:
		return fmt.Sprintf("%s: placeholders {%s}, source has {%s}",
			p.Key, strings.Join(p.Got, "}, {"), strings.Join(p.Want, "}, {"))
	}
	return p.Key
}

// Check compares target against source. Problems are reported in source
// key order, extra keys last in target order.
func Check(source, target *File) []Problem {
	var problems []Problem
	for _, key := range source.Keys() {
		srcValue, _ := source.Get(key)
		value, ok := target.Get(key)
		switch {
		case !ok:
			problems = append(problems, Problem{Key: key, Kind: Missing})
		case value == "" && srcValue != "":
			problems = append(problems, Problem{Key: key, Kind: Empty})
		default:
			want, got := Placeholders(srcValue), Placeholders(value)
			if !slices.Equal(want, got) {
				problems = append(problems, Problem{Key: key, Kind: PlaceholderMismatch, Want: want, Got: got})
			}
		}
	}
	for _, key := range target.Keys() {
		if !source.Has(key) {
			problems = append(problems, Problem{Key: key, Kind: Extra})
		}
	}
	return problems
}

// WriteCSV writes one row per source key: key, source value, target value.
// The header row names the two locales. target may be nil.
func WriteCSV(w io.Writer, source, target *File, targetCode string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", source.Locale(), targetCode}); err != nil {
		return err
	}
	for _, key := range source.Keys() {
		srcValue, _ := source.Get(key)
		var value string
		if target != nil {
			value, _ = target.Get(key)
		}
		if err := cw.Write([]string{key, srcValue, value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
