package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/cache"
	"github.com/minios-linux/arbkit/codec"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/langmeta"
	"github.com/minios-linux/arbkit/translate"
)

// arbProject is a loaded project with its template ARB file.
type arbProject struct {
	proj   *config.Project
	source translate.ARBSource
	layout arbfile.Layout
}

func loadARBProject() (*arbProject, error) {
	proj, err := loadProject()
	if err != nil {
		return nil, err
	}
	path := proj.SourcePath()
	f, err := arbfile.ParseFile(path)
	if err != nil {
		return nil, err
	}
	code := f.Locale()
	if code == "" {
		code = config.TemplateLocale(path)
	}
	lang, err := langmeta.Lookup(code)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", path, err)
	}
	return &arbProject{
		proj:   proj,
		source: translate.ARBSource{Language: lang, Path: path, File: f},
		layout: proj.Layout(code),
	}, nil
}

// targetCodes returns the existing ARB language codes, minus the source and
// excluded languages. With a filter, the filter codes are used instead;
// they may name languages without a file yet and are resolved to their
// catalog form.
func (a *arbProject) targetCodes(filter []string) ([]string, error) {
	var codes []string
	for _, code := range filter {
		lang, err := langmeta.Lookup(code)
		if err != nil {
			return nil, err
		}
		codes = append(codes, lang.Code)
	}
	if len(codes) == 0 {
		entries, err := a.layout.List()
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			codes = append(codes, e.Code)
		}
	}
	var out []string
	for _, code := range codes {
		if code == a.source.Language.Code || a.proj.Excluded(code) {
			continue
		}
		out = append(out, code)
	}
	return out, nil
}

// tasks loads the target files of codes. Codes are resolved to their
// catalog form, so "pt-br" names app_pt_BR.arb. A missing file gives a nil
// Target.
func (a *arbProject) tasks(codes []string) ([]translate.ARBTask, error) {
	tasks := make([]translate.ARBTask, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		lang, err := langmeta.Lookup(code)
		if err != nil {
			return nil, err
		}
		if seen[lang.Code] || lang.Code == a.source.Language.Code || a.proj.Excluded(lang.Code) {
			continue
		}
		seen[lang.Code] = true
		path := a.layout.Path(lang.Code)
		target, err := arbfile.ParseFile(path)
		if err != nil {
			if !errors.Is(err, arbfile.ErrNotFound) {
				return nil, err
			}
			target = nil
		}
		tasks = append(tasks, translate.ARBTask{Language: lang, Path: path, Target: target})
	}
	return tasks, nil
}

// gatewayFlags are the provider flags shared by every translating command.
type gatewayFlags struct {
	provider string
	apiKey   string
	noCache  bool
}

func (g *gatewayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.provider, "provider", "", "Translation provider: free, paid (default from "+config.FileName+")")
	cmd.Flags().StringVar(&g.apiKey, "api-key", "", "Cloud Translation API key (or ARBKIT_GOOGLE_API_KEY)")
	cmd.Flags().BoolVar(&g.noCache, "no-cache", false, "Do not read or write the translation cache")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			translate.ProviderFree + "\tGoogle Translate web endpoint, no key",
			translate.ProviderPaid + "\tGoogle Cloud Translation API, key required",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// newGateway builds the provider, cache and codec settings of proj. The
// caller closes the returned store.
func newGateway(ctx context.Context, proj *config.Project, g gatewayFlags) (*translate.Gateway, cache.Store, error) {
	tc := proj.File.Translate
	providerID := g.provider
	if providerID == "" {
		providerID = tc.Provider
	}

	var key string
	if providerID == translate.ProviderPaid {
		k, err := proj.APIKey(g.apiKey)
		if err != nil {
			return nil, nil, err
		}
		key = k
	}

	prov, err := translate.NewProvider(translate.ProviderConfig{
		ID:      providerID,
		APIKey:  key,
		Proxy:   tc.Proxy,
		Timeout: tc.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	exclude, err := codec.CompileExclusions(tc.ExcludeKeywords)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(ctx, proj.CacheOptions(g.noCache))
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("gateway ready", "provider", prov.Name(), "rps", tc.RequestsPerSecond, "exclude", len(exclude))

	return &translate.Gateway{
		Provider:     prov,
		Cache:        store,
		Limiter:      translate.NewLimiter(tc.RequestsPerSecond),
		Exclude:      exclude,
		EncodeParams: proj.EncodeParams(),
		Options:      runOptions(),
	}, store, nil
}

func closeStore(ctx context.Context, store cache.Store) {
	if st, err := store.Stats(ctx); err == nil {
		slog.Debug("cache", "stats", st.String())
	}
	if err := store.Close(); err != nil {
		logWarning("Closing cache: %v", err)
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		source  string
		prefix  string
		exclude string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write " + config.FileName + " for a Flutter project",
		Long: `Validate the template ARB file and write ` + config.FileName + `.

Without --source the template is taken from l10n.yaml (arb-dir and
template-arb-file) or the gen-l10n defaults (lib/l10n/app_en.arb).

Examples:
  arbkit init
  arbkit init --source lib/l10n/intl_en.arb --exclude ja,ko`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(source, prefix, splitList(exclude), force)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Template ARB file, relative to the project root")
	cmd.Flags().StringVar(&prefix, "prefix", "", "ARB file name prefix (default: derived from --source)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Languages never translated (comma-separated)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing "+config.FileName)
	return cmd
}

func runInit(source, prefix string, exclude []string, force bool) error {
	det := config.Detect(rootDir)
	if fileExists(filepath.Join(det.Root, config.FileName)) && !force {
		return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.FileName, det.Root)
	}
	if source == "" {
		source = det.SourcePath()
		logInfo("Detected template: %s", source)
	}

	abs := source
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(det.Root, source)
	}
	f, err := arbfile.ParseFile(abs)
	if err != nil {
		return err
	}
	code := f.Locale()
	if code == "" {
		code = config.TemplateLocale(abs)
	}
	lang, err := langmeta.Lookup(code)
	if err != nil {
		return fmt.Errorf("template %s: %w", source, err)
	}
	for _, c := range exclude {
		if _, err := langmeta.Lookup(c); err != nil {
			return err
		}
	}

	file := &config.File{ARB: config.ARBConfig{SourcePath: source, Prefix: prefix, Exclude: exclude}}
	if err := file.Save(det.Root); err != nil {
		return err
	}
	logSuccess("Wrote %s", filepath.Join(det.Root, config.FileName))
	logInfo("Project: %s %s", det.Name, det.Version)
	logInfo("Source: %s, %s", lang, i18n.N("%d key", "%d keys", f.Len()))
	if len(det.Platforms) > 0 {
		names := make([]string, len(det.Platforms))
		for i, p := range det.Platforms {
			names[i] = string(p)
		}
		logInfo("Store metadata found: %s", strings.Join(names, ", "))
	}
	fmt.Fprintf(os.Stderr, "\n  Next: arbkit translate --lang de,fr\n\n")
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project info and what the next run would translate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			hist, err := history.Load(ap.proj.Root)
			if err != nil {
				return err
			}
			codes, err := ap.targetCodes(nil)
			if err != nil {
				return err
			}
			tasks, err := ap.tasks(codes)
			if err != nil {
				return err
			}
			showStatus(ap, hist, translate.Preview(ap.source, hist, tasks))
			return nil
		},
	}
}

func showStatus(ap *arbProject, hist *history.Snapshot, previews []translate.LangPreview) {
	proj := ap.proj
	fmt.Fprintf(os.Stderr, "%s\n", cyan(i18n.T("Project")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Root:", proj.Root)
	fmt.Fprintf(os.Stderr, "  %-12s %s (%s)\n", "Source:", ap.source.Path, ap.source.Language)
	fmt.Fprintf(os.Stderr, "  %-12s %d\n", "Keys:", ap.source.File.Len())
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "History:", hist.Summary())
	provider := proj.File.Translate.Provider
	if provider == "" {
		provider = translate.ProviderFree
	}
	fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Provider:", provider)
	co := proj.CacheOptions(false)
	if co.RedisURL != "" {
		fmt.Fprintf(os.Stderr, "  %-12s redis\n", "Cache:")
	} else {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", "Cache:", co.SQLitePath)
	}
	fmt.Fprintln(os.Stderr)

	if len(previews) == 0 {
		logInfo("No target languages yet. Add one with: arbkit translate --lang de")
		return
	}

	total := ap.source.File.Len()
	fmt.Fprintf(os.Stderr, "%-10s %-8s %-8s %-8s %s\n", "Lang", "Create", "Update", "Skip", "Done")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	pending := 0
	for _, p := range previews {
		percent := 100
		if total > 0 {
			percent = p.Stats.Skip * 100 / total
		}
		fmt.Fprintf(os.Stderr, "%-10s %-8d %-8d %-8d %s\n", p.Language.Code, p.Stats.Create, p.Stats.Update, p.Stats.Skip, progressBar(percent, 20))
		pending += p.Stats.Pending()
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	if pending == 0 {
		logSuccess("All translations are up to date")
		return
	}
	logInfo("%s to translate. Run: arbkit translate", i18n.N("%d string", "%d strings", pending))
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		langs  string
		dryRun bool
		check  bool
		gf     gatewayFlags
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate ARB files",
		Long: `Translate the template ARB file into every target language.

Only keys that are new, or whose source text changed since the last run, are
sent to the provider. Languages are translated one at a time; Ctrl+C stops
after the current language and keeps everything written so far.

Examples:
  arbkit translate
  arbkit translate --lang de,fr,pt_BR
  arbkit translate --provider paid --api-key AIza...
  arbkit translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), splitList(langs), dryRun, check, gf)
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Languages to translate (comma-separated, default: all existing ARB files)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling the provider")
	cmd.Flags().BoolVar(&check, "check", false, "Check the written files against the template afterwards")
	gf.register(cmd)
	return cmd
}

func runTranslate(ctx context.Context, langs []string, dryRun, check bool, gf gatewayFlags) error {
	ap, err := loadARBProject()
	if err != nil {
		return err
	}
	hist, err := history.Load(ap.proj.Root)
	if err != nil {
		return err
	}
	codes, err := ap.targetCodes(langs)
	if err != nil {
		return err
	}
	tasks, err := ap.tasks(codes)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no target languages found next to %s; use --lang", ap.source.Path)
	}

	if dryRun {
		for _, p := range translate.Preview(ap.source, hist, tasks) {
			note := ""
			if !p.Exists {
				note = " (new file)"
			}
			logInfo("%s: %s%s", p.Language, p.Stats, note)
		}
		return nil
	}

	gw, store, err := newGateway(ctx, ap.proj, gf)
	if err != nil {
		return err
	}
	defer closeStore(context.WithoutCancel(ctx), store)

	logInfo("Provider: %s", gw.Provider.Name())
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Language.Code
	}
	logInfo("Translating: %s", strings.Join(names, ", "))
	start := time.Now()

	sum, err := translate.TranslateAllARB(ctx, ap.source, hist, tasks, gw, runOptions())
	logInfo("Total: %s in %s", sum.Total, time.Since(start).Round(time.Millisecond))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logWarning("Translation interrupted, %d language(s) not started: %s", len(sum.Skipped), strings.Join(sum.Skipped, ", "))
			return nil
		}
		return err
	}

	if check {
		if n := checkFiles(ap, sum.Completed); n > 0 {
			return fmt.Errorf("%d problem(s) after translation: %w", n, errProblems)
		}
	}
	logSuccess("Translation complete!")
	return nil
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check ARB files against the template",
		Long: `Report missing keys, keys not in the template, empty values and
{placeholder} mismatches. Exits with status 1 when problems are found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			codes, err := ap.targetCodes(splitList(langs))
			if err != nil {
				return err
			}
			if n := checkFiles(ap, codes); n > 0 {
				return fmt.Errorf("%d problem(s): %w", n, errProblems)
			}
			logSuccess("All ARB files match the template")
			return nil
		},
	}
	cmd.Flags().StringVar(&langs, "lang", "", "Languages to check (comma-separated, default: all)")
	return cmd
}

// checkFiles prints the problems of each code and returns their count.
func checkFiles(ap *arbProject, codes []string) int {
	count := 0
	for _, code := range codes {
		path := ap.layout.Path(code)
		f, err := arbfile.ParseFile(path)
		if err != nil {
			logError("%v", err)
			count++
			continue
		}
		problems := arbfile.Check(ap.source.File, f)
		if len(problems) == 0 {
			continue
		}
		logWarning("%s: %s", filepath.Base(path), i18n.N("%d problem", "%d problems", len(problems)))
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		count += len(problems)
	}
	return count
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var (
		format string
		outDir string
		langs  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export translations for review",
		Long: `Write one CSV file per language with the columns key, source text and
translation. Files are named <code>.csv.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" {
				return fmt.Errorf("unsupported export format %q (want csv)", format)
			}
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(ap.proj.StateDir(), "export")
			}
			codes, err := ap.targetCodes(splitList(langs))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", outDir, err)
			}
			for _, code := range codes {
				path, err := exportCSV(ap, code, outDir)
				if err != nil {
					return err
				}
				logInfo("Wrote %s", path)
			}
			logSuccess("Exported %d language(s)", len(codes))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Export format (csv)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default .arbkit/export)")
	cmd.Flags().StringVar(&langs, "lang", "", "Languages to export (comma-separated, default: all)")
	return cmd
}

func exportCSV(ap *arbProject, code, outDir string) (string, error) {
	target, err := arbfile.ParseFile(ap.layout.Path(code))
	if err != nil && !errors.Is(err, arbfile.ErrNotFound) {
		return "", err
	}
	path := filepath.Join(outDir, code+".csv")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := arbfile.WriteCSV(out, ap.source.File, target, code); err != nil {
		out.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
