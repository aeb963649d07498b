package delta

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/arbkit/arbfile"
)

type mapHistory map[string]string

func (h mapHistory) Value(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

func mustParse(t *testing.T, s string) *arbfile.File {
	t.Helper()
	f, err := arbfile.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func upper(qs []string) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = strings.ToUpper(q)
	}
	return out
}

func TestCompute_NewLanguage(t *testing.T) {
	src := mustParse(t, `{"@@locale":"en","hello":"Hi {name}","@hello":{"description":"x"}}`)
	target := mustParse(t, `{"@@locale":"de"}`)

	p := Compute(src, mapHistory{}, target, "de")
	if diff := cmp.Diff([]string{"hello"}, p.Created); diff != "" {
		t.Errorf("Created mismatch (-want +got):\n%s", diff)
	}
	if p.Stats.Skip != 0 || p.Stats.Update != 0 {
		t.Errorf("stats = %+v", p.Stats)
	}
	if diff := cmp.Diff([]string{"Hi {name}"}, p.Queries()); diff != "" {
		t.Errorf("Queries mismatch (-want +got):\n%s", diff)
	}

	doc, err := p.Apply([]string{"Hallo {name}"})
	if err != nil {
		t.Fatal(err)
	}
	out, _ := doc.Marshal()
	want := "{\n  \"@@locale\": \"de\",\n  \"hello\": \"Hallo {name}\"\n}\n"
	if string(out) != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestCompute_UnchangedIsSkipped(t *testing.T) {
	src := mustParse(t, `{"@@locale":"en","hello":"Hi"}`)
	target := mustParse(t, `{"@@locale":"de","hello":"Servus"}`)
	hist := mapHistory{"hello": "Hi"}

	p := Compute(src, hist, target, "de")
	if !p.Empty() || p.Stats.Skip != 1 {
		t.Fatalf("plan = %+v", p.Stats)
	}
	doc, err := p.Apply(nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := doc.Get("hello"); v != "Servus" {
		t.Errorf("hello = %q, want prior target value", v)
	}
}

func TestCompute_Classification(t *testing.T) {
	src := mustParse(t, `{
		"@@locale": "en",
		"same": "Same",
		"changed": "Changed now",
		"fresh": "Fresh",
		"notInTarget": "Kept in history",
		"note@meta": "not translatable"
	}`)
	target := mustParse(t, `{
		"@@locale": "fr",
		"same": "Pareil",
		"changed": "Changé",
		"removed": "Supprimé"
	}`)
	hist := mapHistory{
		"same":        "Same",
		"changed":     "Changed",
		"notInTarget": "Kept in history",
		"removed":     "Removed",
	}

	p := Compute(src, hist, target, "fr")
	if diff := cmp.Diff([]string{"same"}, p.Skipped); diff != "" {
		t.Errorf("Skipped (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"changed"}, p.Updated); diff != "" {
		t.Errorf("Updated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"fresh", "notInTarget"}, p.Created); diff != "" {
		t.Errorf("Created (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"changed", "fresh", "notInTarget"}, p.Keys()); diff != "" {
		t.Errorf("Keys (-want +got):\n%s", diff)
	}

	doc, err := p.Apply(upper(p.Queries()))
	if err != nil {
		t.Fatal(err)
	}
	// Exactly the source key set, in source order; "removed" is pruned.
	if diff := cmp.Diff([]string{"same", "changed", "fresh", "notInTarget"}, doc.Keys()); diff != "" {
		t.Errorf("output keys (-want +got):\n%s", diff)
	}
	if doc.Locale() != "fr" {
		t.Errorf("locale = %q", doc.Locale())
	}
	want := map[string]string{
		"same":        "Pareil",
		"changed":     "CHANGED NOW",
		"fresh":       "FRESH",
		"notInTarget": "KEPT IN HISTORY",
	}
	if diff := cmp.Diff(want, doc.Values()); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	src := mustParse(t, `{"@@locale":"en","a":"One","b":"Two"}`)
	target := arbfile.New("es")

	first := Compute(src, mapHistory{}, target, "es")
	doc, err := first.Apply(upper(first.Queries()))
	if err != nil {
		t.Fatal(err)
	}

	// After the run the history holds the source snapshot.
	hist := mapHistory(src.Values())
	second := Compute(src, hist, doc, "es")
	if second.Stats.Pending() != 0 || second.Stats.Skip != 2 {
		t.Errorf("second run stats = %+v", second.Stats)
	}
}

func TestCompute_NilTargetAndHistory(t *testing.T) {
	src := mustParse(t, `{"a":"One"}`)
	p := Compute(src, nil, nil, "it")
	if p.Stats.Create != 1 {
		t.Errorf("stats = %+v", p.Stats)
	}
}

func TestApply_LengthMismatch(t *testing.T) {
	src := mustParse(t, `{"a":"One","b":"Two"}`)
	p := Compute(src, nil, nil, "it")
	if _, err := p.Apply([]string{"Uno"}); err == nil {
		t.Fatal("expected error for short translation list")
	}
}

func TestStatsAdd(t *testing.T) {
	total := Stats{}
	total.Add(Stats{Skip: 1, Create: 2, APICalls: 2})
	total.Add(Stats{Update: 3, CacheHits: 1})
	want := Stats{Skip: 1, Create: 2, Update: 3, APICalls: 2, CacheHits: 1}
	if total != want {
		t.Errorf("total = %+v, want %+v", total, want)
	}
	if total.String() != "create: 2, update: 3, skip: 1 (api: 2, cache: 1)" {
		t.Errorf("String() = %q", total.String())
	}
}
