package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/langmeta"
	"github.com/minios-linux/arbkit/translate"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{name: "clamps below zero", percent: -10, width: 4, want: "░░░░   0%"},
		{name: "mid range", percent: 50, width: 4, want: "██░░  50%"},
		{name: "clamps above hundred", percent: 120, width: 4, want: "████ 100%"},
	}
	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitListAndIntersect(t *testing.T) {
	if diff := cmp.Diff([]string{"de", "pt_BR"}, splitList(" de, ,pt_BR,")); diff != "" {
		t.Errorf("splitList (-want +got):\n%s", diff)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %#v, want nil", got)
	}

	available := []string{"en", "fr", "de", "es"}
	filter := []string{" fr ", "es", "it"}
	if diff := cmp.Diff([]string{"fr", "es"}, intersectLanguages(available, filter)); diff != "" {
		t.Errorf("intersectLanguages (-want +got):\n%s", diff)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}
	if !fileExists(path) {
		t.Fatal("fileExists(file) = false")
	}
	if fileExists(dir) {
		t.Fatal("fileExists(directory) = true")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatal("fileExists(missing) = true")
	}
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		if got := confirm(strings.NewReader(in), "Proceed?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHintFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("load: %w", config.ErrNoProject), "arbkit init"},
		{fmt.Errorf("x: %w", config.ErrAPIKeyRequired), "arbkit auth login"},
		{translate.ErrNoAPIKey, "ARBKIT_GOOGLE_API_KEY"},
		{fmt.Errorf("source: %w", langmeta.ErrUnknownLanguage), "arbkit languages"},
		{fmt.Errorf("key: %w", arbfile.ErrInvalidKey), "letters and digits"},
		{fmt.Errorf("app_de.arb: %w", arbfile.ErrInvalidLocale), "@@locale"},
		{fmt.Errorf("de -> fr: %w", &translate.FailureError{Provider: "google-free", Message: "boom"}), "network"},
		{errors.New("plain"), ""},
	}
	for _, tc := range tests {
		got := hintFor(tc.err)
		if tc.want == "" && got != "" || !strings.Contains(got, tc.want) {
			t.Errorf("hintFor(%v) = %q, want containing %q", tc.err, got, tc.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	if !newLogger("debug", false).Enabled(ctx, slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	l := newLogger("bogus", false)
	if l.Enabled(ctx, slog.LevelDebug) || !l.Enabled(ctx, slog.LevelInfo) {
		t.Error("unknown level should fall back to info")
	}
	if !newLogger("error", true).Enabled(ctx, slog.LevelDebug) {
		t.Error("--verbose should force debug")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := loadDotEnv(dir); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
	t.Setenv("ARBKIT_TEST_DOTENV", "")
	os.Unsetenv("ARBKIT_TEST_DOTENV")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ARBKIT_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(dir); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("ARBKIT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("ARBKIT_TEST_DOTENV = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Command tree
// ---------------------------------------------------------------------------

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func newFlutterProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	l10n := filepath.Join(dir, "lib", "l10n")
	if err := os.MkdirAll(l10n, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"app_en.arb": `{"@@locale":"en","hello":"Hello","@hello":{"description":"greeting"},"bye":"Bye &amp; see you"}`,
		"app_de.arb": `{"@@locale":"de","hello":"Hallo"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(l10n, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readValue(t *testing.T, path, key string) (string, bool) {
	t.Helper()
	f, err := arbfile.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return f.Get(key)
}

func TestCLI_ProjectWorkflow(t *testing.T) {
	dir := newFlutterProject(t)
	src := filepath.Join(dir, "lib", "l10n", "app_en.arb")
	de := filepath.Join(dir, "lib", "l10n", "app_de.arb")

	if err := runCLI(t, "--root", dir, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	f, err := config.LoadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if f.ARB.SourcePath != filepath.Join("lib", "l10n", "app_en.arb") {
		t.Errorf("source_path = %q", f.ARB.SourcePath)
	}
	if err := runCLI(t, "--root", dir, "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	if err := runCLI(t, "--root", dir, "status"); err != nil {
		t.Errorf("status: %v", err)
	}
	if err := runCLI(t, "--root", dir, "translate", "--dry-run", "--lang", "fr"); err != nil {
		t.Errorf("translate --dry-run: %v", err)
	}

	if err := runCLI(t, "--root", dir, "check"); !errors.Is(err, errProblems) {
		t.Errorf("check err = %v, want errProblems", err)
	}

	if err := runCLI(t, "--root", dir, "keys", "rename", "hello", "--to", "1bad"); !errors.Is(err, arbfile.ErrInvalidKey) {
		t.Errorf("rename to invalid key err = %v", err)
	}
	if err := runCLI(t, "--root", dir, "keys", "rename", "hello", "--to", "greeting"); err != nil {
		t.Fatalf("keys rename: %v", err)
	}
	if v, ok := readValue(t, de, "greeting"); !ok || v != "Hallo" {
		t.Errorf("de greeting = %q, %v", v, ok)
	}
	if raw, _ := os.ReadFile(src); !strings.Contains(string(raw), `"@greeting"`) {
		t.Errorf("@hello metadata was not renamed:\n%s", raw)
	}

	if err := runCLI(t, "--root", dir, "decode-html"); err != nil {
		t.Fatalf("decode-html: %v", err)
	}
	if v, _ := readValue(t, src, "bye"); v != "Bye & see you" {
		t.Errorf("bye = %q", v)
	}

	out := filepath.Join(dir, "out")
	if err := runCLI(t, "--root", dir, "export", "--out", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "de.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "key,en,de\ngreeting,Hello,Hallo\n") {
		t.Errorf("de.csv = %q", data)
	}
	if err := runCLI(t, "--root", dir, "export", "--format", "xlsx"); err == nil {
		t.Error("unsupported export format should fail")
	}

	if err := runCLI(t, "--root", dir, "keys", "delete", "bye", "--yes"); err != nil {
		t.Fatalf("keys delete: %v", err)
	}
	if _, ok := readValue(t, src, "bye"); ok {
		t.Error("bye still in source")
	}
	if err := runCLI(t, "--root", dir, "check"); err != nil {
		t.Errorf("check after delete: %v", err)
	}
}

func TestARBProject_CanonicalTargetCodes(t *testing.T) {
	dir := newFlutterProject(t)
	if err := runCLI(t, "--root", dir, "init"); err != nil {
		t.Fatal(err)
	}
	ap, err := loadARBProject()
	if err != nil {
		t.Fatal(err)
	}

	codes, err := ap.targetCodes([]string{"pt-br", "EN", "de"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"pt_BR", "de"}, codes); diff != "" {
		t.Errorf("targetCodes (-want +got):\n%s", diff)
	}
	if _, err := ap.targetCodes([]string{"xx-nope"}); !errors.Is(err, langmeta.ErrUnknownLanguage) {
		t.Errorf("unknown code err = %v", err)
	}

	tasks, err := ap.tasks([]string{"pt-br", "pt_BR", "en"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("tasks = %+v, want one pt_BR task", tasks)
	}
	if got, want := tasks[0].Path, filepath.Join(dir, "lib", "l10n", "app_pt_BR.arb"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if tasks[0].Language.Code != "pt_BR" || tasks[0].Target != nil {
		t.Errorf("task = %+v", tasks[0])
	}
}

func TestCLI_NoProject(t *testing.T) {
	err := runCLI(t, "--root", t.TempDir(), "status")
	if !errors.Is(err, config.ErrNoProject) {
		t.Fatalf("err = %v, want ErrNoProject", err)
	}
}

func TestCLI_PaidWithoutKey(t *testing.T) {
	dir := newFlutterProject(t)
	t.Setenv("ARBKIT_GOOGLE_API_KEY", "")
	if err := runCLI(t, "--root", dir, "init"); err != nil {
		t.Fatal(err)
	}
	err := runCLI(t, "--root", dir, "translate", "--provider", "paid", "--no-cache")
	if !errors.Is(err, config.ErrAPIKeyRequired) {
		t.Fatalf("err = %v, want ErrAPIKeyRequired", err)
	}
}

func TestCLI_CacheCommands(t *testing.T) {
	dir := newFlutterProject(t)
	if err := runCLI(t, "--root", dir, "init"); err != nil {
		t.Fatal(err)
	}
	if err := runCLI(t, "--root", dir, "cache", "stats"); err != nil {
		t.Errorf("cache stats: %v", err)
	}
	if err := runCLI(t, "--root", dir, "cache", "prune", "--days", "0"); err == nil {
		t.Error("prune --days 0 should fail")
	}
	if err := runCLI(t, "--root", dir, "cache", "clear", "--yes"); err != nil {
		t.Errorf("cache clear: %v", err)
	}
	if !fileExists(filepath.Join(dir, ".arbkit", "cache.db")) {
		t.Error("cache.db not created")
	}
}
