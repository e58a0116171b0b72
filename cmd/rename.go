package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/internal/ui"
)

var renameCmd = &cobra.Command{
	Use:     "rename <old-collection> <new-collection>",
	Aliases: []string{"mv"},
	Short:   "Copy a collection's assets into a new collection",
	Long: `Earth Engine collections cannot be renamed in place. rename creates the
new collection when it does not exist, copies every direct child of the old
one into it and, with --delete, removes the copied assets and the old
collection afterwards.

Examples:
  geowalk rename users/me/scenes users/me/scenes_2024 --dry-run
  geowalk rename users/me/scenes users/me/scenes_2024 --delete
  geowalk rename users/me/scenes users/me/scenes_2024 --overwrite=false`,
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

var renameOpts catalog.RenameOptions

func init() {
	rootCmd.AddCommand(renameCmd)

	renameCmd.Flags().BoolVar(&renameOpts.Delete, "delete", false, "Delete the old assets and collection after copying")
	renameCmd.Flags().BoolVar(&renameOpts.Overwrite, "overwrite", true, "Overwrite assets that already exist in the new collection, so an interrupted rename can be re-run")
	renameCmd.Flags().BoolVar(&renameOpts.DryRun, "dry-run", false, "Print the plan without changing anything")
}

func runRename(cmd *cobra.Command, args []string) error {
	oldPath, newPath := args[0], args[1]

	s, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}
	logger := newLogger(s)

	ctx, cancel := signalContext()
	defer cancel()

	p, err := openProvider(ctx, s, oldPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	renamer, err := catalog.NewRenamer(p, logger)
	if err != nil {
		return err
	}

	result, err := renamer.Rename(ctx, oldPath, newPath, renameOpts)
	printRenameResult(cmd, newPath, result)
	return err
}

func printRenameResult(cmd *cobra.Command, newPath string, result *catalog.RenameResult) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()

	verb := func(done, planned string) string {
		if renameOpts.DryRun {
			return planned
		}
		return done
	}

	if result.Created {
		fmt.Fprintf(out, "%s %s\n", ui.SuccessStyle.Render(verb("created", "would create")), newPath)
	}
	for _, m := range result.Moves {
		fmt.Fprintf(out, "%s %s %s %s\n",
			ui.SuccessStyle.Render(verb("copied", "would copy")),
			ui.PathStyle.Render(m.From), ui.MutedStyle.Render("->"), m.To)
	}
	for _, path := range result.Deleted {
		fmt.Fprintf(out, "%s %s\n", ui.FailureStyle.Render(verb("deleted", "would delete")), path)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), ui.MutedStyle.Render(
		fmt.Sprintf("%d assets %s", len(result.Moves), verb("copied", "to copy"))))
}
