// Package cmd assembles the bonsai command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/bonsai-go/cmd/backup"
	"github.com/tphakala/bonsai-go/cmd/db"
	"github.com/tphakala/bonsai-go/cmd/notify"
	"github.com/tphakala/bonsai-go/cmd/photo"
	"github.com/tphakala/bonsai-go/cmd/reminder"
	"github.com/tphakala/bonsai-go/cmd/restore"
	"github.com/tphakala/bonsai-go/cmd/serve"
	"github.com/tphakala/bonsai-go/cmd/species"
	"github.com/tphakala/bonsai-go/cmd/tree"
	"github.com/tphakala/bonsai-go/cmd/update"
	"github.com/tphakala/bonsai-go/internal/buildinfo"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bonsai",
		Short:         "Bonsai collection tracker",
		Long:          "Track bonsai trees, the work done on them, their photos and care reminders.",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		tree.Command(settings),
		update.Command(settings),
		photo.Command(settings),
		reminder.Command(settings),
		species.Command(settings),
		backup.Command(settings, build),
		restore.Command(settings, build),
		db.Command(settings),
		serve.Command(settings, build),
		notify.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings, build)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown()
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize runs after flag parsing and before any subcommand.
func initialize(settings *conf.Settings, build *buildinfo.Context) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings, build.Version()); err != nil {
		logger.Global().Module("main").Warn("sentry initialization failed", logger.Error(err))
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
