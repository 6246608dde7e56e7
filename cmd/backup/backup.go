// Package backup provides the export command
package backup

import (
	"fmt"
	"os"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/archive/targets"
	"github.com/tphakala/bonsai-go/internal/buildinfo"
	"github.com/tphakala/bonsai-go/internal/conf"
)

// Command creates and returns the export command
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var (
		dir    string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole collection to a zip archive",
		Long: `Export writes every tree with its history, photos and reminders to a single
zip archive, together with a spreadsheet report. With --upload, or export.upload
in the configuration, the archive is also copied to the enabled targets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = settings.Export.Path
			}
			if !cmd.Flags().Changed("upload") {
				upload = settings.Export.Upload
			}
			return runExport(cmd, settings, build, dir, upload)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "o", "", "Directory to write the archive to (default export.path)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Copy the archive to the configured targets")
	return cmd
}

func runExport(cmd *cobra.Command, settings *conf.Settings, build *buildinfo.Context, dir string, upload bool) error {
	// Resolve targets first so a bad target configuration fails before the export.
	var uploadTargets []targets.Target
	if upload {
		var err error
		if uploadTargets, err = targets.FromSettings(&settings.Targets); err != nil {
			return err
		}
		if len(uploadTargets) == 0 {
			return fmt.Errorf("--upload requested but no archive target is enabled")
		}
	}

	a, err := app.Open(settings, app.WithArchive(build.Version()))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	path, err := a.Service.ExportCollection(ctx, dir)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported collection to %s (%s)\n", path, bytes.Format(info.Size()))

	if !upload {
		return nil
	}
	if err := targets.UploadAll(ctx, uploadTargets, path); err != nil {
		return fmt.Errorf("archive upload failed: %w", err)
	}
	for _, t := range uploadTargets {
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to %s\n", t.Name())
	}
	return nil
}
