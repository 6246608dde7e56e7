// Package notify provides a command that sends a test notification.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/reminder"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/notification"
)

// Command returns a cobra command that sends a test notification through
// every enabled reminder channel
func Command(settings *conf.Settings) *cobra.Command {
	var (
		title   string
		message string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification through the configured channels",
		Long: `Send a test notification through every enabled channel, the shoutrrr URLs
under notification.urls and the MQTT topic.

Examples:
  bonsai notify
  bonsai notify --title "Test" --message "Hello from the greenhouse"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			senders, release, err := reminder.NewSenders(settings, nil)
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			msg := &notification.Message{
				Title:        title,
				Body:         message,
				TreeNumber:   "BON-000",
				TreeName:     "Test",
				ReminderDate: time.Now(),
			}

			failed := 0
			for _, s := range senders {
				if err := s.Send(ctx, msg); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %v\n", s.Name(), err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: sent\n", s.Name())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d channel(s) failed", failed, len(senders))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", notification.TitlePrefix+"BON-000", "Notification title")
	cmd.Flags().StringVar(&message, "message", "This is a test notification", "Notification message")
	cmd.Flags().DurationVar(&timeout, "wait", 30*time.Second, "How long to wait for delivery")
	return cmd
}
