// Package restore provides the import command
package restore

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/buildinfo"
	"github.com/tphakala/bonsai-go/internal/conf"
)

// Command creates and returns the import command
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var (
		imageDir string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Replace the collection with the content of an export archive",
		Long: `Import restores a collection archive created by export.

WARNING: every existing tree, work history entry, photo and reminder is
replaced. The import runs in one transaction, a failed import leaves the
current collection untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath := args[0]
			if _, err := os.Stat(archivePath); err != nil {
				return fmt.Errorf("archive file does not exist: %s", archivePath)
			}
			if !yes {
				return fmt.Errorf("import replaces the whole collection, rerun with --yes to confirm")
			}

			a, err := app.Open(settings, app.WithArchive(build.Version()))
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Service.ImportCollection(cmd.Context(), archivePath, imageDir)
			if !result.Success {
				return fmt.Errorf("import failed: %s", result.Message)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Message)
			fmt.Fprintf(out, "Trees: %d, updates: %d, photos: %d, reminders: %d\n",
				result.Trees, result.Updates, result.Photos, result.Reminders)
			if result.SkippedFolders > 0 {
				fmt.Fprintf(out, "Skipped %d image folder(s) without a matching tree\n", result.SkippedFolders)
			}
			fmt.Fprintf(out, "Completed in %s\n", result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&imageDir, "images", "", "Directory for the restored photos (default images.path)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm replacing the current collection")
	return cmd
}
