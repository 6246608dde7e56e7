// Package update provides the commands that record work on a tree.
package update

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
)

// Command creates and returns the update command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Record and review work done on trees",
	}

	cmd.AddCommand(addCommand(settings), listCommand(settings), deleteCommand(settings))
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var (
		work       string
		date       string
		girth      float64
		photos     []string
		photoDesc  string
		remindOn   string
		remindWhat string
	)

	cmd := &cobra.Command{
		Use:   "add <tree>",
		Short: "Record work performed on a tree",
		Example: `  bonsai update add BON-004 --work "Repotted into a shallower pot" --girth 12.5 --photo before.jpg --photo after.jpg
  bonsai update add BON-004 --work "Wired branches" --remind-on 2024-09-01 --remind "Remove wire"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := collection.UpdateInput{WorkPerformed: work, PhotoDescription: photoDesc}

			if cmd.Flags().Changed("date") {
				t, err := app.ParseDate("date", date)
				if err != nil {
					return err
				}
				in.UpdateDate = t
			}
			if cmd.Flags().Changed("girth") {
				in.Girth = &girth
			}
			if remindOn != "" || remindWhat != "" {
				if remindOn == "" || remindWhat == "" {
					return fmt.Errorf("a reminder needs both --remind-on and --remind")
				}
				t, err := app.ParseDate("remind-on", remindOn)
				if err != nil {
					return err
				}
				in.Reminder = &collection.ReminderInput{ReminderDate: t, Message: remindWhat}
			}

			uploads, closeUploads, err := app.OpenUploads(photos)
			if err != nil {
				return err
			}
			defer closeUploads()
			in.Photos = uploads

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
			u, err := a.Service.RecordUpdate(ctx, tree.ID, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded update %d for %s on %s", u.ID, tree.TreeNumber, app.FormatDate(u.UpdateDate))
			if len(photos) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " with %d photo(s)", len(photos))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&work, "work", "w", "", "Work performed")
	cmd.Flags().StringVar(&date, "date", "", "Date of the work (YYYY-MM-DD), defaults to now")
	cmd.Flags().Float64Var(&girth, "girth", 0, "New trunk girth in cm")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Photo file to attach, repeatable")
	cmd.Flags().StringVar(&photoDesc, "photo-desc", "", "Photo description, defaults to the work performed")
	cmd.Flags().StringVar(&remindOn, "remind-on", "", "Schedule a follow-up reminder on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&remindWhat, "remind", "", "Follow-up reminder message")
	_ = cmd.MarkFlagRequired("work")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list <tree>",
		Short: "List the work history of a tree, newest first",
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
			updates, err := a.Service.ListUpdates(ctx, tree.ID)
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No work recorded for %s\n", tree.TreeNumber)
				return nil
			}

			table := app.NewTable(cmd.OutOrStdout(), "ID", "DATE", "GIRTH", "WORK")
			for _, u := range updates {
				table.Row(fmt.Sprint(u.ID), app.FormatDate(u.UpdateDate), app.FormatGirth(u.Girth), app.OneLine(u.WorkPerformed))
			}
			return table.Flush()
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <update-id>",
		Short: "Delete a work history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("update", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.DeleteUpdate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted update %d\n", id)
			return nil
		},
	}
}
