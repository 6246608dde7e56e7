// Package photo provides the photo commands.
package photo

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/conf"
)

// Command creates and returns the photo command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage tree photos",
	}

	cmd.AddCommand(
		addCommand(settings),
		listCommand(settings),
		starCommand(settings, true),
		starCommand(settings, false),
		deleteCommand(settings),
	)
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:     "add <tree> <file>...",
		Short:   "Add photos to a tree",
		Example: `  bonsai photo add BON-004 spring.jpg summer.jpg --desc "Seasonal progress"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, closeUploads, err := app.OpenUploads(args[1:])
			if err != nil {
				return err
			}
			defer closeUploads()

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			tree, err := app.ResolveTree(ctx, a.Service, args[0])
			if err != nil {
				return err
			}
			photos, err := a.Service.AddPhotos(ctx, tree.ID, uploads, description)
			if err != nil {
				return err
			}
			for _, p := range photos {
				fmt.Fprintf(cmd.OutOrStdout(), "Added photo %d: %s\n", p.ID, p.FilePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "desc", "", "Photo description")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list <tree>",
		Short: "List the photos of a tree, starred first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			tree, err := app.ResolveTree(ctx, a.Service, args[0])
			if err != nil {
				return err
			}
			photos, err := a.Service.ListPhotos(ctx, tree.ID)
			if err != nil {
				return err
			}
			if len(photos) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No photos for %s\n", tree.TreeNumber)
				return nil
			}

			table := app.NewTable(cmd.OutOrStdout(), "ID", "DATE", "STAR", "FILE", "DESCRIPTION")
			for _, p := range photos {
				star := ""
				if p.IsStarred {
					star = "*"
				}
				table.Row(fmt.Sprint(p.ID), app.FormatDate(p.PhotoDate), star, p.FilePath, app.OneLine(p.Description))
			}
			return table.Flush()
		},
	}
}

func starCommand(settings *conf.Settings, starred bool) *cobra.Command {
	use, short, done := "star <photo-id>", "Make a photo the tree's starred photo", "Starred"
	if !starred {
		use, short, done = "unstar <photo-id>", "Remove the star from a photo", "Unstarred"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("photo", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.StarPhoto(cmd.Context(), id, starred); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s photo %d\n", done, id)
			return nil
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Delete a photo and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("photo", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.DeletePhoto(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted photo %d\n", id)
			return nil
		},
	}
}
