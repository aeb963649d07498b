package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/metadata"
	"github.com/minios-linux/arbkit/translate"
)

// ---------------------------------------------------------------------------
// metadata
// ---------------------------------------------------------------------------

func newMetadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Check, create and translate fastlane store listings",
		Long: `Manage fastlane app-store metadata:

  android/fastlane/metadata/android/<locale>/*.txt
  ios/fastlane/metadata/<locale>/*.txt

The directories can be changed under metadata: in ` + config.FileName + `.`,
	}
	cmd.AddCommand(newMetadataCheckCmd(), newMetadataCreateCmd(), newMetadataTranslateCmd())
	return cmd
}

func newMetadataCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check length limits, required fields and URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			issues, err := metadata.CheckAll(proj.MetadataRoots())
			if err != nil {
				return err
			}
			return reportIssues(issues, "All store listings are valid")
		},
	}
}

func newMetadataCreateCmd() *cobra.Command {
	var platform, locale string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the listing files of a locale",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := metadata.ParsePlatform(platform)
			if err != nil {
				return err
			}
			if _, ok := p.LookupLocale(locale); !ok {
				return fmt.Errorf("%s has no store locale %q; see 'arbkit languages --platform %s'", p, locale, p)
			}
			proj, err := loadProject()
			if err != nil {
				return err
			}
			created, err := metadata.Create(proj.MetadataRoot(p), p, locale)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				logInfo("%s/%s: every file already exists", p, locale)
				return nil
			}
			for _, path := range created {
				logInfo("Created %s", path)
			}
			logSuccess("%s/%s: created %d file(s)", p, locale, len(created))
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform: android, ios")
	cmd.Flags().StringVar(&locale, "locale", "", "Store locale, e.g. de-DE")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("locale")
	return cmd
}

func newMetadataTranslateCmd() *cobra.Command {
	var (
		platform  string
		source    string
		targets   string
		files     string
		urlPolicy string
		gf        gatewayFlags
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the store listing into other locales",
		Long: `Translate every text field of the source locale into the target locales.
Missing locale directories and files are created.

URL fields are never translated. --url-policy skip leaves them alone,
override copies the source URLs into every target.

Examples:
  arbkit metadata translate --platform android --source en-US
  arbkit metadata translate --platform ios --source en-US --target de-DE,fr-FR --files title.txt,subtitle.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := metadata.ParsePlatform(platform)
			if err != nil {
				return err
			}
			policy, err := translate.ParseURLPolicy(urlPolicy)
			if err != nil {
				return err
			}
			proj, err := loadProject()
			if err != nil {
				return err
			}
			req := translate.MetadataRequest{
				Platform:  p,
				Root:      proj.MetadataRoot(p),
				Source:    source,
				Targets:   splitList(targets),
				Files:     splitList(files),
				URLPolicy: policy,
			}
			return runMetadataTranslate(cmd.Context(), proj, gf, func(ctx context.Context, gw *translate.Gateway) (translate.MetadataSummary, error) {
				return translate.TranslateMetadata(ctx, gw, req, runOptions())
			})
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform: android, ios")
	cmd.Flags().StringVar(&source, "source", "", "Source store locale, e.g. en-US")
	cmd.Flags().StringVar(&targets, "target", "", "Target locales (comma-separated, default: every existing locale)")
	cmd.Flags().StringVar(&files, "files", "", "Field files to translate (comma-separated, default: all)")
	cmd.Flags().StringVar(&urlPolicy, "url-policy", string(translate.URLSkip), "URL fields: skip, override")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("source")
	gf.register(cmd)
	return cmd
}

// runMetadataTranslate runs fn with a gateway for proj and prints the
// summary.
func runMetadataTranslate(ctx context.Context, proj *config.Project, gf gatewayFlags,
	fn func(ctx context.Context, gw *translate.Gateway) (translate.MetadataSummary, error)) error {

	gw, store, err := newGateway(ctx, proj, gf)
	if err != nil {
		return err
	}
	defer closeStore(context.WithoutCancel(ctx), store)

	sum, err := fn(ctx, gw)
	logInfo("Completed: %d, failed: %d, unsupported: %d (api: %d, cache: %d)",
		len(sum.Completed), len(sum.Failed), len(sum.Unsupported), sum.APICalls, sum.CacheHits)
	for _, issue := range sum.Issues {
		logWarning("%s", issue)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logWarning("Translation interrupted, %d locale(s) not started: %s", len(sum.Skipped), strings.Join(sum.Skipped, ", "))
			return nil
		}
		return err
	}
	logSuccess("Translation complete!")
	return nil
}

func reportIssues(issues []metadata.Issue, okMessage string) error {
	if len(issues) == 0 {
		logSuccess("%s", okMessage)
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "  %s\n", issue)
	}
	return fmt.Errorf("%d issue(s): %w", len(issues), errProblems)
}

// ---------------------------------------------------------------------------
// changelog
// ---------------------------------------------------------------------------

func newChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Check and translate release notes",
		Long: `Release notes live in changelogs/<build>.txt (android, 500 characters)
and release_notes.txt (ios) of each locale.`,
	}
	cmd.AddCommand(newChangelogCheckCmd(), newChangelogTranslateCmd())
	return cmd
}

func newChangelogCheckCmd() *cobra.Command {
	var build string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the release notes of a build in every locale",
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			issues, err := metadata.CheckChangelogs(proj.MetadataRoots(), build)
			if err != nil {
				return err
			}
			return reportIssues(issues, "All release notes are valid")
		},
	}
	cmd.Flags().StringVar(&build, "build", "", "Build number (android changelogs/<build>.txt)")
	_ = cmd.MarkFlagRequired("build")
	return cmd
}

func newChangelogTranslateCmd() *cobra.Command {
	var (
		platform string
		source   string
		build    string
		targets  string
		gf       gatewayFlags
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the release notes of a build",
		Long: `Translate the release notes of the source locale line by line into the
target locales.

Example:
  arbkit changelog translate --platform android --source en-US --build 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := metadata.ParsePlatform(platform)
			if err != nil {
				return err
			}
			proj, err := loadProject()
			if err != nil {
				return err
			}
			req := translate.ChangelogRequest{
				Platform: p,
				Root:     proj.MetadataRoot(p),
				Source:   source,
				Build:    build,
				Targets:  splitList(targets),
			}
			return runMetadataTranslate(cmd.Context(), proj, gf, func(ctx context.Context, gw *translate.Gateway) (translate.MetadataSummary, error) {
				return translate.TranslateChangelog(ctx, gw, req, runOptions())
			})
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform: android, ios")
	cmd.Flags().StringVar(&source, "source", "", "Source store locale, e.g. en-US")
	cmd.Flags().StringVar(&build, "build", "", "Build number (required for android)")
	cmd.Flags().StringVar(&targets, "target", "", "Target locales (comma-separated, default: every existing locale)")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("source")
	gf.register(cmd)
	return cmd
}
