package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/cache"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/langmeta"
)

const sourceARB = `{
  "@@locale": "en",
  "hello": "Hello {name}",
  "@hello": {
    "placeholders": {
      "name": {}
    }
  },
  "bye": "Goodbye"
}
`

type arbProject struct {
	dir    string
	source ARBSource
	hist   *history.Snapshot
}

func newARBProject(t *testing.T) *arbProject {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lib", "l10n", "app_en.arb")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sourceARB), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := arbfile.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	hist, err := history.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return &arbProject{
		dir:    dir,
		source: ARBSource{Language: en, Path: path, File: src},
		hist:   hist,
	}
}

func (p *arbProject) tasks(t *testing.T, codes ...string) []ARBTask {
	t.Helper()
	layout := arbfile.LayoutFromSource(p.source.Path, "en")
	var tasks []ARBTask
	for _, code := range codes {
		task := ARBTask{Language: langmeta.MustLookup(code), Path: layout.Path(code)}
		f, err := arbfile.ParseFile(task.Path)
		switch {
		case err == nil:
			task.Target = f
		case !errors.Is(err, arbfile.ErrNotFound):
			t.Fatal(err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func readARB(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := arbfile.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return f.Values()
}

func TestTranslateAllARB_FirstAndSecondRun(t *testing.T) {
	proj := newARBProject(t)
	p := &fakeProvider{}
	gw := &Gateway{Provider: p, Cache: cache.NewMemoryStore(), EncodeParams: true}

	sum, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "en", "de", "fr"), gw, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"de", "fr"}, sum.Completed); diff != "" {
		t.Errorf("Completed (-want +got):\n%s", diff)
	}
	if sum.Total.Create != 4 || sum.Total.APICalls != 4 || !sum.HistorySaved {
		t.Errorf("summary = %+v", sum)
	}

	dePath := filepath.Join(filepath.Dir(proj.source.Path), "app_de.arb")
	want := map[string]string{"hello": "[de]Hello {name}", "bye": "[de]Goodbye"}
	if diff := cmp.Diff(want, readARB(t, dePath)); diff != "" {
		t.Errorf("app_de.arb (-want +got):\n%s", diff)
	}
	data, _ := os.ReadFile(dePath)
	if !strings.HasPrefix(string(data), "{\n  \"@@locale\": \"de\",") {
		t.Errorf("app_de.arb must start with @@locale:\n%s", data)
	}
	if strings.Contains(string(data), "@hello") {
		t.Errorf("metadata copied into target:\n%s", data)
	}

	// The history now mirrors the source and nothing is left to do.
	hist, err := history.Load(proj.dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := hist.Value("hello"); v != "Hello {name}" {
		t.Errorf("history hello = %q", v)
	}

	before, _ := os.Stat(dePath)
	calls := len(p.calls)
	sum, err = TranslateAllARB(context.Background(), proj.source, hist, proj.tasks(t, "de", "fr"), gw, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.calls) != calls || sum.Total.Skip != 4 || sum.Total.Pending() != 0 {
		t.Errorf("second run summary = %+v, new calls = %d", sum, len(p.calls)-calls)
	}
	for _, lr := range sum.Languages {
		if lr.Written {
			t.Errorf("%s rewritten without changes", lr.Code)
		}
	}
	after, _ := os.Stat(dePath)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged file was rewritten")
	}
}

func TestTranslateAllARB_SourceChange(t *testing.T) {
	proj := newARBProject(t)
	gw := &Gateway{Provider: &fakeProvider{}, EncodeParams: true}
	if _, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "de"), gw, Options{}); err != nil {
		t.Fatal(err)
	}

	proj.source.File.Set("bye", "See you")
	proj.source.File.Append("thanks", "Thanks")

	p := &fakeProvider{}
	gw.Provider = p
	sum, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "de"), gw, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total.Skip != 1 || sum.Total.Update != 1 || sum.Total.Create != 1 {
		t.Errorf("stats = %s", sum.Total)
	}
	if diff := cmp.Diff([]string{"See you", "Thanks"}, p.calls); diff != "" {
		t.Errorf("provider calls (-want +got):\n%s", diff)
	}
}

func TestTranslateAllARB_OneLanguageFails(t *testing.T) {
	proj := newARBProject(t)
	p := &fakeProvider{fail: map[string]error{"fr": &FailureError{Provider: "fake", Message: "unsupported"}}}
	logs, logf := collectLogs()
	gw := &Gateway{Provider: p}

	sum, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "fr", "de"), gw, Options{OnError: logf})
	if err == nil || err.Error() != "1 language(s) failed: fr" {
		t.Fatalf("err = %v", err)
	}
	if diff := cmp.Diff([]string{"de"}, sum.Completed); diff != "" {
		t.Errorf("Completed (-want +got):\n%s", diff)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(proj.source.Path), "app_fr.arb")); !os.IsNotExist(statErr) {
		t.Error("failed language must not be written")
	}
	if len(*logs) != 1 || !strings.Contains((*logs)[0], "unsupported") {
		t.Errorf("logs = %v", *logs)
	}
	if !sum.HistorySaved {
		t.Error("history not saved after a completed language")
	}
	// Keys queued for fr were never recorded, so they are not marked done.
	if proj.hist.Len() != 0 {
		t.Errorf("history recorded %d keys still pending for fr", proj.hist.Len())
	}
}

func TestTranslateAllARB_FailedLanguageRetriesUpdate(t *testing.T) {
	proj := newARBProject(t)
	frPath := filepath.Join(filepath.Dir(proj.source.Path), "app_fr.arb")
	gw := &Gateway{Provider: &fakeProvider{}, EncodeParams: true}
	if _, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "de", "fr"), gw, Options{}); err != nil {
		t.Fatal(err)
	}

	proj.source.File.Set("bye", "See you")
	gw.Provider = &fakeProvider{fail: map[string]error{"fr": &FailureError{Provider: "fake", Message: "quota"}}}
	sum, err := TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "fr", "de"), gw, Options{})
	if err == nil {
		t.Fatal("want an error for fr")
	}
	if diff := cmp.Diff([]string{"de"}, sum.Completed); diff != "" {
		t.Errorf("Completed (-want +got):\n%s", diff)
	}
	if v, _ := proj.hist.Value("bye"); v != "Goodbye" {
		t.Errorf("history bye = %q, want the previous value while fr is pending", v)
	}
	if v, _ := proj.hist.Value("hello"); v != "Hello {name}" {
		t.Errorf("history hello = %q", v)
	}

	gw.Provider = &fakeProvider{}
	sum, err = TranslateAllARB(context.Background(), proj.source, proj.hist, proj.tasks(t, "fr"), gw, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total.Update != 1 || sum.Total.Skip != 1 {
		t.Errorf("retry stats = %s", sum.Total)
	}
	if got := readARB(t, frPath)["bye"]; got != "[fr]See you" {
		t.Errorf("fr bye = %q, want [fr]See you", got)
	}
	if v, _ := proj.hist.Value("bye"); v != "See you" {
		t.Errorf("history bye after retry = %q", v)
	}
}

func TestTranslateAllARB_CancelledBeforeStart(t *testing.T) {
	proj := newARBProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{}
	sum, err := TranslateAllARB(ctx, proj.source, proj.hist, proj.tasks(t, "de", "fr"), &Gateway{Provider: p}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(p.calls) != 0 || sum.HistorySaved {
		t.Errorf("summary = %+v", sum)
	}
	if diff := cmp.Diff([]string{"de", "fr"}, sum.Skipped); diff != "" {
		t.Errorf("Skipped (-want +got):\n%s", diff)
	}
	if _, statErr := os.Stat(history.Path(proj.dir)); !os.IsNotExist(statErr) {
		t.Error("history written by a run that did nothing")
	}
}

func TestTranslateAllARB_InFlightLanguageFinishes(t *testing.T) {
	proj := newARBProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel while the first language is being translated.
	p := &fakeProvider{}
	p.rewrite = func(text, tag string) string {
		cancel()
		return "[" + tag + "]" + text
	}
	sum, err := TranslateAllARB(ctx, proj.source, proj.hist, proj.tasks(t, "de", "fr"), &Gateway{Provider: p, EncodeParams: true}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if diff := cmp.Diff([]string{"de"}, sum.Completed); diff != "" {
		t.Errorf("Completed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"fr"}, sum.Skipped); diff != "" {
		t.Errorf("Skipped (-want +got):\n%s", diff)
	}
	if v := readARB(t, filepath.Join(filepath.Dir(proj.source.Path), "app_de.arb")); len(v) != 2 {
		t.Errorf("app_de.arb = %v", v)
	}
	if !sum.HistorySaved {
		t.Error("history not saved")
	}
	// fr never started, so its queued keys stay unrecorded.
	if proj.hist.Len() != 0 {
		t.Errorf("history = %d keys, want 0 while fr is pending", proj.hist.Len())
	}
}

func TestPreview(t *testing.T) {
	proj := newARBProject(t)
	got := Preview(proj.source, proj.hist, proj.tasks(t, "en", "de"))
	if len(got) != 1 {
		t.Fatalf("Preview = %+v", got)
	}
	if got[0].Exists || got[0].Stats.Create != 2 {
		t.Errorf("preview = %+v", got[0])
	}
}
