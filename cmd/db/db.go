// Package db provides the database maintenance commands.
package db

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/transfer"
)

// TargetPasswordEnv holds the password of the MySQL copy target.
const TargetPasswordEnv = "BONSAI_TARGET_MYSQL_PASSWORD"

// Command creates and returns the db command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long:  "Migrate creates missing tables and columns and backfills values for databases created by older versions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := datastore.New(settings)
			if err != nil {
				return err
			}
			// Open migrates the schema.
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema of %s database %s is up to date\n", store.Backend(), store.Location())
			return nil
		},
	}

	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and start with an empty collection",
		Long:  "Reset deletes all trees, work history, photos records, reminders and settings. Photo files on disk are left in place.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes the whole collection, rerun with --yes to confirm")
			}

			store, err := datastore.New(settings)
			if err != nil {
				return err
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer store.Close()

			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset, the collection is empty")
			return nil
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")

	cmd.AddCommand(migrateCmd, resetCmd, copyCommand(settings))
	return cmd
}

// copyFlags describes the copy target.
type copyFlags struct {
	to         string
	sqlitePath string
	mysql      conf.MySQLSettings
	batchSize  int
	clean      bool
	yes        bool
}

func copyCommand(settings *conf.Settings) *cobra.Command {
	f := copyFlags{}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy the collection into another database",
		Long: `Copy writes every species, tree, work entry, photo record, reminder and setting
from the configured database into another one, keeping record ids. Use it to move
from SQLite to MySQL, then switch database.type in config.yaml.

The MySQL password is read from ` + TargetPasswordEnv + `.`,
		Example: "  bonsai db copy --to mysql --mysql-host db.local --mysql-user bonsai --mysql-database bonsai --yes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, settings, &f)
		},
	}

	cmd.Flags().StringVar(&f.to, "to", conf.DatabaseMySQL, "Target backend, sqlite or mysql")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "Target SQLite file")
	cmd.Flags().StringVar(&f.mysql.Host, "mysql-host", "localhost", "Target MySQL host")
	cmd.Flags().IntVar(&f.mysql.Port, "mysql-port", 3306, "Target MySQL port")
	cmd.Flags().StringVar(&f.mysql.Username, "mysql-user", "", "Target MySQL user")
	cmd.Flags().StringVar(&f.mysql.Database, "mysql-database", "", "Target MySQL database")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", transfer.DefaultBatchSize, "Rows per insert")
	cmd.Flags().BoolVar(&f.clean, "clean", false, "Delete existing rows in the target first")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Confirm writing to the target")
	return cmd
}

// targetSettings returns a copy of settings pointing at the copy target.
func (f *copyFlags) targetSettings(settings *conf.Settings) (*conf.Settings, error) {
	target := *settings
	target.Database.Type = f.to

	switch f.to {
	case conf.DatabaseSQLite:
		if f.sqlitePath == "" {
			return nil, fmt.Errorf("--sqlite-path is required when copying to sqlite")
		}
		target.Database.SQLite.Path = f.sqlitePath
	case conf.DatabaseMySQL:
		if f.mysql.Username == "" || f.mysql.Database == "" {
			return nil, fmt.Errorf("--mysql-user and --mysql-database are required when copying to mysql")
		}
		target.Database.MySQL = f.mysql
		target.Database.MySQL.Password = os.Getenv(TargetPasswordEnv)
	default:
		return nil, fmt.Errorf("--to must be %q or %q, got %q", conf.DatabaseSQLite, conf.DatabaseMySQL, f.to)
	}
	return &target, nil
}

func runCopy(cmd *cobra.Command, settings *conf.Settings, f *copyFlags) error {
	if !f.yes {
		return fmt.Errorf("copy writes into the target database, rerun with --yes to confirm")
	}

	targetSettings, err := f.targetSettings(settings)
	if err != nil {
		return err
	}

	src, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	dst, err := datastore.New(targetSettings)
	if err != nil {
		return err
	}
	if err := dst.Open(); err != nil {
		return err
	}
	defer dst.Close()

	if src.Backend() == dst.Backend() && src.Location() == dst.Location() {
		return fmt.Errorf("source and target are the same database")
	}

	stats, err := transfer.Copy(cmd.Context(), src, dst, transfer.Options{BatchSize: f.batchSize, Clean: f.clean})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ts := range stats.Tables {
		fmt.Fprintf(out, "%-14s %6d rows  %s\n", ts.Name, ts.Copied, ts.Duration.Round(time.Millisecond))
	}

	mismatches, err := transfer.Verify(cmd.Context(), src, dst)
	if err != nil {
		return err
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("copy verification failed: %s", transfer.FormatMismatches(mismatches))
	}

	fmt.Fprintf(out, "Copied %d rows to %s database %s in %s\n", stats.Total(), dst.Backend(), dst.Location(), stats.Duration.Round(time.Millisecond))
	return nil
}
