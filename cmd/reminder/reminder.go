// Package reminder provides the reminder commands.
package reminder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// Command creates and returns the reminder command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Schedule and follow up care reminders",
	}

	cmd.AddCommand(
		addCommand(settings),
		listCommand(settings),
		completeCommand(settings),
		deleteCommand(settings),
		checkCommand(settings),
	)
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var (
		date    string
		message string
	)

	cmd := &cobra.Command{
		Use:     "add <tree>",
		Short:   "Schedule a reminder for a tree",
		Example: `  bonsai reminder add BON-004 --on 2024-09-01 --message "Remove wire"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := app.ParseDate("on", date)
			if err != nil {
				return err
			}

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
			r, err := a.Service.AddReminder(ctx, tree.ID, collection.ReminderInput{ReminderDate: on, Message: message})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d scheduled for %s on %s\n", r.ID, tree.TreeNumber, app.FormatDate(r.ReminderDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "on", "", "Reminder date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "What to do")
	_ = cmd.MarkFlagRequired("on")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var (
		tree string
		all  bool
		due  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open reminders by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var reminders []*entities.Reminder
			if due {
				reminders, err = a.Service.DueReminders(ctx, a.Service.Now())
			} else {
				filter := collection.ReminderFilter{IncludeCompleted: all}
				if tree != "" {
					t, err := app.ResolveTree(ctx, a.Service, tree)
					if err != nil {
						return err
					}
					filter.TreeID = t.ID
				}
				reminders, err = a.Service.ListReminders(ctx, filter)
			}
			if err != nil {
				return err
			}
			if len(reminders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reminders")
				return nil
			}

			table := app.NewTable(cmd.OutOrStdout(), "ID", "DATE", "TREE", "DONE", "NOTIFIED", "MESSAGE")
			for _, r := range reminders {
				table.Row(
					fmt.Sprint(r.ID),
					app.FormatDate(r.ReminderDate),
					fmt.Sprint(r.TreeID),
					yesNo(r.IsCompleted),
					yesNo(r.NotificationSent),
					app.OneLine(r.Message),
				)
			}
			return table.Flush()
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Only reminders of this tree")
	cmd.Flags().BoolVar(&all, "all", false, "Include completed reminders")
	cmd.Flags().BoolVar(&due, "due", false, "Only reminders due today or earlier")
	return cmd
}

func completeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <reminder-id>",
		Short: "Mark a reminder as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("reminder", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.CompleteReminder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed reminder %d\n", id)
			return nil
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reminder-id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("reminder", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.DeleteReminder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %d\n", id)
			return nil
		},
	}
}

func checkCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Send notifications for due reminders once",
		Long: `Check sends one notification per due reminder through the configured
shoutrrr URLs and MQTT topic. Delivered reminders are flagged and not sent again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			checker, release, err := NewChecker(settings, a.Service, nil)
			if err != nil {
				return err
			}
			defer release()

			result, err := checker.Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Due: %d, sent: %d, failed: %d\n", result.Pending, result.Sent, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d reminder notification(s) failed, they will be retried on the next check", result.Failed)
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
