package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/settings"
)

const apiKeyHelpURL = "https://console.cloud.google.com/apis/credentials"

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Cloud Translation API key",
		Long: `The free provider needs no credentials. The paid provider (Google Cloud
Translation API) needs an API key, looked up in this order:

  1. --api-key flag
  2. ARBKIT_GOOGLE_API_KEY environment variable (or .env)
  3. the key stored by 'arbkit auth login'

Examples:
  arbkit auth login
  arbkit auth list
  arbkit auth logout`,
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthListCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the Cloud Translation API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				k, keep, err := promptAPIKey()
				if err != nil {
					return err
				}
				if keep {
					logInfo("Keeping existing key")
					return nil
				}
				key = k
			}
			if err := settings.SetAPIKey(settings.ProviderGoogle, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			logSuccess("API key saved to %s", settings.FilePath())
			fmt.Fprintf(os.Stderr, "\n  You can now use: arbkit translate --provider paid\n\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	return cmd
}

// promptAPIKey reads a key from stdin. keep is true when the user pressed
// Enter to keep the stored key.
func promptAPIKey() (key string, keep bool, err error) {
	fmt.Fprintf(os.Stderr, "\n%s\n", cyan("Google Cloud Translation API key"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Get your API key from: %s\n\n", green(apiKeyHelpURL))

	existing := settings.GetAPIKey(settings.ProviderGoogle)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s\n", yellow(settings.MaskKey(existing)))
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Enter API key: ")
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", false, fmt.Errorf("no input received")
	}
	key = strings.TrimSpace(scanner.Text())
	if key == "" {
		if existing != "" {
			return "", true, nil
		}
		return "", false, fmt.Errorf("no API key provided")
	}
	return key, false, nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.RemoveAll(); err != nil {
				return err
			}
			logSuccess("Stored credentials removed")
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%s\n", cyan("Stored Credentials"))
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

			store := settings.Load()
			if len(store) == 0 {
				fmt.Fprintf(os.Stderr, "  %-14s %s\n", settings.ProviderGoogle, red("not configured"))
			}
			for _, id := range store.IDs() {
				fmt.Fprintf(os.Stderr, "  %-14s %s (key: %s)\n", id, green("configured"), settings.MaskKey(store[id].Key))
			}

			envVar := settings.EnvVarForProvider(settings.ProviderGoogle)
			if v := os.Getenv(envVar); v != "" {
				fmt.Fprintf(os.Stderr, "\n  %s: %s (overrides the stored key)\n", envVar, green(settings.MaskKey(v)))
			} else {
				fmt.Fprintf(os.Stderr, "\n  %s: %s\n", envVar, red("not set"))
			}
			fmt.Fprintf(os.Stderr, "  %-14s %s\n\n", "File:", settings.FilePath())
		},
	}
}
