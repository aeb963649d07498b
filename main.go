// arbkit: Flutter ARB localization kit with incremental machine translation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/cache"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/langmeta"
	"github.com/minios-linux/arbkit/metadata"
	"github.com/minios-linux/arbkit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, blue("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, green("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, yellow("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, red("[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	env     config.Env
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbkit",
		Short: i18n.T("Flutter ARB localization kit with machine translation"),
		Long: `arbkit: Flutter ARB localization kit.

Translates the template ARB file into every language of the project through
Google Translate. Only strings that are new or changed since the last run are
sent; everything else is kept. Translations are cached locally (SQLite) or
shared through Redis.

Also maintains fastlane store metadata and release notes for Android and iOS.

Commands:
  init        Write .arbkit.yaml for a Flutter project
  status      Show what the next translation run would do
  translate   Translate ARB files
  check       Check ARB files against the template
  keys        Rename or delete keys in every ARB file
  metadata    Check, create and translate store listings
  changelog   Check and translate release notes
  cache       Inspect the translation cache
  auth        Manage the Cloud Translation API key`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(rootDir); err != nil {
				return err
			}
			e, err := config.LoadEnv()
			if err != nil {
				return err
			}
			env = e
			slog.SetDefault(newLogger(env.LogLevel, verbose))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")

	root.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newTranslateCmd(),
		newCheckCmd(),
		newKeysCmd(),
		newDecodeHTMLCmd(),
		newExportCmd(),
		newMetadataCmd(),
		newChangelogCmd(),
		newCacheCmd(),
		newAuthCmd(),
		newLanguagesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := notifyInterrupt(cancel)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// notifyInterrupt cancels on the first SIGINT and exits on the second.
func notifyInterrupt(cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		if _, ok := <-sigCh; !ok {
			return
		}
		logWarning(i18n.T("Interrupted, finishing the current language (press Ctrl+C again to abort)"))
		cancel()
		if _, ok := <-sigCh; ok {
			logError(i18n.T("Aborted"))
			os.Exit(130)
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}

// loadDotEnv loads dir/.env. Variables already set win.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// newLogger returns the debug logger. --verbose forces debug level.
func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// errProblems is returned by check commands that found problems. The
// problems themselves are already printed.
var errProblems = errors.New("problems found")

func reportError(err error) {
	logError("%v", err)
	if hint := hintFor(err); hint != "" {
		logInfo("%s", hint)
	}
}

// hintFor returns the next step for a failed command, or "".
func hintFor(err error) string {
	var fe *translate.FailureError
	switch {
	case errors.Is(err, config.ErrNoProject):
		return i18n.T("Run 'arbkit init' in the project root")
	case errors.Is(err, config.ErrSourcePathRequired):
		return i18n.Tf("Set arb.source_path in %s", config.FileName)
	case errors.Is(err, config.ErrAPIKeyRequired), errors.Is(err, translate.ErrNoAPIKey):
		return i18n.T("Run 'arbkit auth login' or set ARBKIT_GOOGLE_API_KEY")
	case errors.Is(err, langmeta.ErrUnknownLanguage):
		return i18n.T("Run 'arbkit languages' to list supported codes")
	case errors.Is(err, arbfile.ErrInvalidKey):
		return i18n.T("Key names must start with a letter and contain only letters and digits")
	case errors.Is(err, arbfile.ErrDuplicateKey):
		return i18n.T("Pick new key names that are not used yet")
	case errors.Is(err, arbfile.ErrInvalidLocale):
		return i18n.T("Set @@locale to a language code string such as \"de\"")
	case errors.Is(err, arbfile.ErrNotFound):
		return i18n.Tf("Check arb.source_path in %s", config.FileName)
	case errors.Is(err, metadata.ErrLocaleNotFound):
		return i18n.T("Create the locale with 'arbkit metadata create'")
	case errors.Is(err, cache.ErrMigration):
		return i18n.T("Delete the cache database (.arbkit/cache.db) and run again")
	case errors.Is(err, history.ErrMigration):
		return i18n.T("Delete .arbkit/history.json to retranslate every key")
	case errors.As(err, &fe):
		return i18n.T("Check your network connection; completed languages were saved")
	}
	return ""
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arbkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Long: `List the language catalog: ARB code, name and the Google Translate code.

With --platform, list the store locales of android or ios instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if platform != "" {
				p, err := metadata.ParsePlatform(platform)
				if err != nil {
					return err
				}
				for _, l := range p.Locales() {
					lang := l.Language
					if lang == "" {
						lang = red("-")
					}
					fmt.Printf("%-8s %-28s %s\n", l.Locale, l.Name, lang)
				}
				return nil
			}
			for _, l := range langmeta.All() {
				fmt.Printf("%-8s %-28s %s\n", l.Code, l.Name, l.TranslateTag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "List store locales of a platform (android, ios)")
	return cmd
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func loadProject() (*config.Project, error) {
	return config.Load(rootDir, env)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// intersectLanguages keeps the codes of available listed in filter, in
// filter order.
func intersectLanguages(available, filter []string) []string {
	set := make(map[string]bool, len(available))
	for _, l := range available {
		set[l] = true
	}
	var out []string
	for _, l := range filter {
		l = strings.TrimSpace(l)
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

// progressBar renders percent as a colored bar of width cells.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent >= 100:
		bar = green(bar)
	case percent >= 50:
		bar = yellow(bar)
	default:
		bar = red(bar)
	}
	return fmt.Sprintf("%s %3d%%", bar, percent)
}

// runOptions returns the console reporting callbacks of a run.
func runOptions() translate.Options {
	return translate.Options{
		Verbose: verbose,
		OnLog: func(format string, args ...any) {
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			logError(format, args...)
		},
		OnProgress: func(lang string, done, total int) {
			if total == 0 {
				return
			}
			fmt.Fprintf(os.Stderr, "\r  %-8s %s %d/%d", lang, progressBar(done*100/total, 20), done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
	}
}

// confirm asks a yes/no question on stderr and reads the answer from in.
func confirm(in io.Reader, question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
