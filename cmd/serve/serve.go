// Package serve provides the long running server command.
package serve

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/cmd/reminder"
	"github.com/tphakala/bonsai-go/internal/api"
	"github.com/tphakala/bonsai-go/internal/buildinfo"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability"
)

// Command creates and returns the serve command
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, metrics endpoint and reminder scheduler",
		Long: `Serve runs until interrupted. It starts the HTTP API when webserver.enabled is
set, the Prometheus endpoint when metrics.enabled is set and checks for due
reminders every notification.checkinterval when a notification channel is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, build)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		panic(err)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen", viper.GetString("webserver.listen"), "Listen address of the HTTP API")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable the Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "metrics-listen", viper.GetString("metrics.listen"), "Listen address of the metrics endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) error {
	log := logger.Global().Module("serve")

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	a, err := app.Open(settings, app.WithArchive(build.Version()), app.WithMetrics(m))
	if err != nil {
		return err
	}
	defer a.Close()

	// Every component is built before any is started.
	var tasks []func(context.Context) error

	if settings.WebServer.Enabled {
		server, err := api.New(settings, a.Service, api.WithMetrics(m.HTTP), api.WithVersion(build.Version()))
		if err != nil {
			return err
		}
		tasks = append(tasks, server.Run)
	}

	if settings.Metrics.Enabled {
		endpoint, err := observability.NewEndpoint(settings, m)
		if err != nil {
			return err
		}
		tasks = append(tasks, endpoint.Run)
	}

	checker, release, err := reminder.NewChecker(settings, a.Service, m)
	switch {
	case errors.Is(err, reminder.ErrNoChannels):
		log.Info("reminder notifications disabled, no channel configured")
	case err != nil:
		return err
	default:
		defer release()
		interval := settings.Notification.CheckInterval
		tasks = append(tasks, func(ctx context.Context) error {
			checker.Run(ctx, interval)
			return nil
		})
		log.Info("reminder scheduler enabled", logger.Duration("interval", interval))
	}

	if len(tasks) == 0 {
		return fmt.Errorf("nothing to serve, enable webserver, metrics or a notification channel")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}

	log.Info("bonsai tracker running", logger.String("version", build.Version()))
	err = g.Wait()
	log.Info("bonsai tracker stopped")
	return err
}
