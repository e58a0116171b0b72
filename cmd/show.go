package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/internal/report"
	"github.com/vietdv277/geowalk/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <report.csv>",
	Short: "Print a saved CSV report as a table",
	Long: `Read a CSV report written by 'geowalk size -o' and print it as a table
with totals. Rows are re-sorted largest first when sizes are present.

Examples:
  geowalk show sizes.csv
  geowalk show sizes.csv -H`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var showHuman bool

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVarP(&showHuman, "human", "H", false, "Human-readable sizes")
}

func runShow(cmd *cobra.Command, args []string) error {
	records, err := report.ReadCSVFile(args[0])
	if err != nil {
		return err
	}

	catalog.SortRecords(records)
	ui.PrintAssetTable(cmd.OutOrStdout(), records, ui.TableOptions{Human: showHuman})
	return nil
}
