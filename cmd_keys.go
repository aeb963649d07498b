package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/history"
	"github.com/minios-linux/arbkit/i18n"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Rename or delete keys in every ARB file",
	}
	cmd.AddCommand(newKeysRenameCmd(), newKeysDeleteCmd())
	return cmd
}

// rewriteAll applies fn to every ARB file, the template included, and
// writes the files fn changed. Returns the number of files written.
func (a *arbProject) rewriteAll(fn func(f *arbfile.File) int) (int, error) {
	entries, err := a.layout.List()
	if err != nil {
		return 0, err
	}
	written := 0
	for _, e := range entries {
		f, err := arbfile.ParseFile(e.Path)
		if err != nil {
			return written, err
		}
		n := fn(f)
		if n == 0 {
			continue
		}
		if err := f.WriteFile(e.Path); err != nil {
			return written, err
		}
		logInfo("%s: %s", filepath.Base(e.Path), i18n.N("%d key changed", "%d keys changed", n))
		written++
	}
	return written, nil
}

// updateHistory applies fn to the history and saves it, unless the
// project has no history yet.
func (a *arbProject) updateHistory(fn func(h *history.Snapshot)) error {
	hist, err := history.Load(a.proj.Root)
	if err != nil {
		return err
	}
	if hist.Len() == 0 {
		return nil
	}
	fn(hist)
	return hist.Save()
}

func newKeysRenameCmd() *cobra.Command {
	var to []string

	cmd := &cobra.Command{
		Use:   "rename OLD... --to NEW...",
		Short: "Rename keys in every ARB file and in the history",
		Long: `Rename keys in the template, every translation and the history, so the
renamed strings are not translated again.

Every old key must exist in the template. New keys must be valid Dart
identifiers made of ASCII letters and digits and must not exist yet.

Example:
  arbkit keys rename helloWorld byeWorld --to greeting farewell`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			if err := ap.source.File.CheckRename(args, to); err != nil {
				return err
			}
			written, err := ap.rewriteAll(func(f *arbfile.File) int {
				return f.RenameKeys(args, to)
			})
			if err != nil {
				return err
			}
			if err := ap.updateHistory(func(h *history.Snapshot) { h.RenameKeys(args, to) }); err != nil {
				return err
			}
			logSuccess("Renamed %d key(s) in %d file(s)", len(args), written)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "New key names, in the order of the old ones")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newKeysDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete KEY...",
		Short: "Delete keys from every ARB file and the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			for _, k := range args {
				if !ap.source.File.Has(k) {
					logWarning("%s: not in the template", k)
				}
			}
			if !yes && !confirm(os.Stdin, fmt.Sprintf("Delete %d key(s) from every ARB file?", len(args))) {
				logInfo("Cancelled")
				return nil
			}
			written, err := ap.rewriteAll(func(f *arbfile.File) int {
				return f.DeleteKeys(args)
			})
			if err != nil {
				return err
			}
			if err := ap.updateHistory(func(h *history.Snapshot) { h.DeleteKeys(args) }); err != nil {
				return err
			}
			logSuccess("Deleted %d key(s) from %d file(s)", len(args), written)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// ---------------------------------------------------------------------------
// decode-html
// ---------------------------------------------------------------------------

func newDecodeHTMLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-html",
		Short: "Decode HTML entities (&amp;, &#39;) in every ARB file",
		Long: `Older machine translations sometimes contain HTML entities instead of the
characters they stand for. decode-html replaces them in every ARB file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := loadARBProject()
			if err != nil {
				return err
			}
			written, err := ap.rewriteAll(func(f *arbfile.File) int {
				return f.DecodeHTMLEntities()
			})
			if err != nil {
				return err
			}
			if written == 0 {
				logSuccess("No HTML entities found")
				return nil
			}
			logSuccess("Decoded entities in %d file(s)", written)
			return nil
		},
	}
}
