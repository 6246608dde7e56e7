// Package species provides the species commands.
package species

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/conf"
)

// Command creates and returns the species command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "species",
		Short: "List and tidy up species",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known species alphabetically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			species, err := a.Service.ListSpecies(cmd.Context())
			if err != nil {
				return err
			}
			if len(species) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No species yet, they are created when trees are added")
				return nil
			}

			table := app.NewTable(cmd.OutOrStdout(), "ID", "NAME")
			for _, s := range species {
				table.Row(fmt.Sprint(s.ID), s.Name)
			}
			return table.Flush()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <species-id>",
		Short: "Delete a species no tree uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.ParseID("species", args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.DeleteSpecies(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted species %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}
