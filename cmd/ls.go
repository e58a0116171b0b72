package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/ui"
)

var lsCmd = &cobra.Command{
	Use:     "ls <root>",
	Aliases: []string{"list"},
	Short:   "List every leaf asset under a root",
	Long: `Walk the hierarchy below a root folder, collection or prefix and print
every leaf asset, one per line, in depth-first listing order.

Examples:
  geowalk ls users/me/landsat
  geowalk ls projects/my-project/assets/composites -l
  geowalk ls gs://my-bucket/tiles
  geowalk ls s3://scenes/landsat --profile scenes`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

var lsLong bool

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Also print the asset type")
	lsCmd.Flags().Int("max-depth", config.DefaultMaxDepth, "Maximum container nesting before the walk fails")
}

func runLs(cmd *cobra.Command, args []string) error {
	root := args[0]

	s, err := loadSettings(cmd, map[string]string{"max_depth": "max-depth"})
	if err != nil {
		return err
	}
	logger := newLogger(s)

	ctx, cancel := signalContext()
	defer cancel()

	p, err := openProvider(ctx, s, root, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	walker := catalog.NewWalker(p,
		catalog.WithMaxDepth(s.MaxDepth),
		catalog.WithWalkerLogger(logger),
	)
	leaves, err := walker.ListLeaves(ctx, root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, leaf := range leaves {
		if lsLong {
			fmt.Fprintf(out, "%-18s %s\n", leaf.Type, leaf.Path)
			continue
		}
		fmt.Fprintln(out, leaf.Path)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), ui.MutedStyle.Render(fmt.Sprintf("Found %d assets", len(leaves))))
	return nil
}
