// Package tree provides the tree commands.
package tree

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/bonsai-go/cmd/app"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// treeFlags holds the editable tree fields shared by add and edit.
type treeFlags struct {
	name     string
	species  string
	acquired string
	origin   string
	girth    float64
	notes    string
}

func (f *treeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Tree name, unique within the collection")
	cmd.Flags().StringVar(&f.species, "species", "", "Species, created when not known yet")
	cmd.Flags().StringVar(&f.acquired, "acquired", "", "Date the tree was acquired (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.origin, "origin", "", "Date the tree started growing (YYYY-MM-DD), defaults to --acquired")
	cmd.Flags().Float64Var(&f.girth, "girth", 0, "Trunk girth in cm")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free form notes")
}

// apply overwrites in with every flag the user set.
func (f *treeFlags) apply(cmd *cobra.Command, in *collection.TreeInput) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		in.TreeName = f.name
	}
	if changed("species") {
		in.Species = f.species
	}
	if changed("acquired") {
		t, err := app.ParseDate("acquired", f.acquired)
		if err != nil {
			return err
		}
		in.DateAcquired = t
	}
	if changed("origin") {
		t, err := app.ParseDate("origin", f.origin)
		if err != nil {
			return err
		}
		in.OriginDate = t
	}
	if changed("girth") {
		girth := f.girth
		in.CurrentGirth = &girth
	}
	if changed("notes") {
		in.Notes = f.notes
	}
	return nil
}

// Command creates and returns the tree command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage the trees of the collection",
	}

	cmd.AddCommand(
		addCommand(settings),
		listCommand(settings),
		showCommand(settings),
		editCommand(settings),
		archiveCommand(settings, true),
		archiveCommand(settings, false),
		deleteCommand(settings),
	)
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var flags treeFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tree to the collection",
		Example: `  bonsai tree add --name "Old Juniper" --species "Juniperus chinensis" --acquired 2021-04-10 --origin 2005-01-01
  bonsai tree add --name Shohin --species Acer --acquired 2024-03-01 --girth 6.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in collection.TreeInput
			if err := flags.apply(cmd, &in); err != nil {
				return err
			}
			if in.OriginDate.IsZero() {
				in.OriginDate = in.DateAcquired
			}

			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			tree, err := a.Service.CreateTree(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (id %d)\n", tree.TreeNumber, tree.TreeName, tree.ID)
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("species")
	_ = cmd.MarkFlagRequired("acquired")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var (
		archived bool
		all      bool
		species  string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			filter := collection.TreeFilter{IncludeArchived: all, ArchivedOnly: archived, Search: search}
			if species != "" {
				id, err := speciesID(cmd, a.Service, species)
				if err != nil {
					return err
				}
				filter.SpeciesID = id
			}

			trees, err := a.Service.ListTrees(ctx, filter)
			if err != nil {
				return err
			}
			if len(trees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No trees found")
				return nil
			}

			now := a.Service.Now()
			table := app.NewTable(cmd.OutOrStdout(), "ID", "NUMBER", "NAME", "SPECIES", "GIRTH", "TRAINING", "AGE", "STATUS")
			for _, t := range trees {
				table.Row(
					fmt.Sprint(t.ID),
					t.TreeNumber,
					t.TreeName,
					speciesName(t),
					app.FormatGirth(t.CurrentGirth),
					fmt.Sprintf("%.1fy", collection.RoundYears(collection.TrainingAge(t, now))),
					fmt.Sprintf("%.1fy", collection.RoundYears(collection.TrueAge(t, now))),
					status(t),
				)
			}
			return table.Flush()
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "List archived trees only")
	cmd.Flags().BoolVar(&all, "all", false, "Include archived trees")
	cmd.Flags().StringVar(&species, "species", "", "Only trees of this species")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Match tree name or number")
	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tree>",
		Short: "Show a tree with its history, photos and reminders",
		Long:  "Show a tree. <tree> is a tree number such as BON-004 or a numeric id.",
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
			detail, err := a.Service.GetTreeDetail(ctx, tree.ID)
			if err != nil {
				return err
			}
			return printDetail(cmd, detail)
		},
	}
}

func printDetail(cmd *cobra.Command, d *collection.TreeDetail) error {
	out := cmd.OutOrStdout()
	t := d.Tree

	fmt.Fprintf(out, "%s  %s (%s)\n", t.TreeNumber, t.TreeName, status(t))
	fmt.Fprintf(out, "Species:       %s\n", speciesName(t))
	fmt.Fprintf(out, "Acquired:      %s\n", app.FormatDate(t.DateAcquired))
	fmt.Fprintf(out, "Origin:        %s\n", app.FormatDate(t.OriginDate))
	fmt.Fprintf(out, "Training age:  %.1f years\n", collection.RoundYears(d.TrainingAge))
	fmt.Fprintf(out, "True age:      %.1f years\n", collection.RoundYears(d.TrueAge))
	fmt.Fprintf(out, "Girth:         %s\n", app.FormatGirth(t.CurrentGirth))
	if t.Notes != "" {
		fmt.Fprintf(out, "Notes:         %s\n", t.Notes)
	}

	fmt.Fprintf(out, "\nWork history (%d)\n", len(d.Updates))
	if len(d.Updates) > 0 {
		table := app.NewTable(out, "ID", "DATE", "GIRTH", "WORK")
		for _, u := range d.Updates {
			table.Row(fmt.Sprint(u.ID), app.FormatDate(u.UpdateDate), app.FormatGirth(u.Girth), app.OneLine(u.WorkPerformed))
		}
		if err := table.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nPhotos (%d)\n", len(d.Photos))
	if len(d.Photos) > 0 {
		table := app.NewTable(out, "ID", "DATE", "STAR", "FILE", "DESCRIPTION")
		for _, p := range d.Photos {
			star := ""
			if p.IsStarred {
				star = "*"
			}
			table.Row(fmt.Sprint(p.ID), app.FormatDate(p.PhotoDate), star, p.FilePath, app.OneLine(p.Description))
		}
		if err := table.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nReminders (%d)\n", len(d.Reminders))
	if len(d.Reminders) > 0 {
		table := app.NewTable(out, "ID", "DATE", "DONE", "MESSAGE")
		for _, r := range d.Reminders {
			done := ""
			if r.IsCompleted {
				done = "yes"
			}
			table.Row(fmt.Sprint(r.ID), app.FormatDate(r.ReminderDate), done, app.OneLine(r.Message))
		}
		if err := table.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func editCommand(settings *conf.Settings) *cobra.Command {
	var flags treeFlags

	cmd := &cobra.Command{
		Use:   "edit <tree>",
		Short: "Edit tree details, unset flags keep their current value",
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

			in := collection.TreeInput{
				TreeName:     tree.TreeName,
				Species:      speciesName(tree),
				DateAcquired: tree.DateAcquired,
				OriginDate:   tree.OriginDate,
				CurrentGirth: tree.CurrentGirth,
				Notes:        tree.Notes,
			}
			if err := flags.apply(cmd, &in); err != nil {
				return err
			}

			updated, err := a.Service.UpdateTree(ctx, tree.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q\n", updated.TreeNumber, updated.TreeName)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func archiveCommand(settings *conf.Settings, archive bool) *cobra.Command {
	use, short, done := "archive <tree>", "Move a tree to the graveyard", "Archived"
	if !archive {
		use, short, done = "unarchive <tree>", "Bring a tree back from the graveyard", "Restored"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
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
			if err := a.Service.SetArchived(ctx, tree.ID, archive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q\n", done, tree.TreeNumber, tree.TreeName)
			return nil
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <tree>",
		Short: "Delete a tree with its history, photos and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("deleting a tree removes its history and photo files, rerun with --yes to confirm")
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
			if err := a.Service.DeleteTree(ctx, tree.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", tree.TreeNumber, tree.TreeName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func speciesID(cmd *cobra.Command, service *collection.Service, name string) (uint, error) {
	species, err := service.ListSpecies(cmd.Context())
	if err != nil {
		return 0, err
	}
	want := collection.NormalizeSpeciesName(name)
	for _, s := range species {
		if strings.EqualFold(s.Name, want) {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown species %q", name)
}

func speciesName(t *entities.Tree) string {
	if t.Species == nil {
		return ""
	}
	return t.Species.Name
}

func status(t *entities.Tree) string {
	if t.IsArchived {
		return "archived"
	}
	return "active"
}
