package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/report"
	"github.com/vietdv277/geowalk/internal/ui"
)

var sizeCmd = &cobra.Command{
	Use:     "size <root>",
	Aliases: []string{"du", "report"},
	Short:   "Report the size of every leaf asset under a root",
	Long: `Walk the hierarchy below a root, fetch the size of every leaf asset and
print them largest first. With --output the report is written atomically to
a file instead (use "-" for stdout).

Examples:
  geowalk size users/me/landsat
  geowalk size users/me/landsat -o sizes.csv
  geowalk size users/me/landsat -o sizes.json --format json
  geowalk size gs://my-bucket/tiles --columns asset,size_bytes -o -
  geowalk size users/me/landsat --workers 8 --on-error skip`,
	Args: cobra.ExactArgs(1),
	RunE: runSize,
}

var (
	sizeOutput string
	sizeHuman  bool
)

// sizeKeys maps settings keys to size flags
var sizeKeys = map[string]string{
	"format":    "format",
	"columns":   "columns",
	"workers":   "workers",
	"on_error":  "on-error",
	"retries":   "retries",
	"max_depth": "max-depth",
}

func init() {
	rootCmd.AddCommand(sizeCmd)

	flags := sizeCmd.Flags()
	flags.StringVarP(&sizeOutput, "output", "o", "", `Write the report to a file ("-" for stdout)`)
	flags.BoolVarP(&sizeHuman, "human", "H", false, "Human-readable sizes in the table")
	flags.String("format", config.DefaultFormat, "Report format: csv, json, yaml")
	flags.StringSlice("columns", nil, "CSV columns: asset, type, size_mb, size_bytes (default asset,type,size_mb)")
	flags.Int("workers", config.DefaultWorkers, "Concurrent metadata requests")
	flags.String("on-error", config.DefaultOnError, "Per-asset failure policy: abort or skip")
	flags.Int("retries", config.DefaultRetries, "Retries for transient per-asset failures")
	flags.Int("max-depth", config.DefaultMaxDepth, "Maximum container nesting before the walk fails")
}

func runSize(cmd *cobra.Command, args []string) error {
	root := args[0]

	s, err := loadSettings(cmd, sizeKeys)
	if err != nil {
		return err
	}
	logger := newLogger(s)

	// Reject bad output options before any network call.
	format, err := report.ParseFormat(s.Format)
	if err != nil {
		return err
	}
	columns, err := report.ValidateColumns(s.Columns)
	if err != nil {
		return err
	}
	policy, err := catalog.ParseFailurePolicy(s.OnError)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, err := openProvider(ctx, s, root, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	leaves, err := catalog.NewWalker(p,
		catalog.WithMaxDepth(s.MaxDepth),
		catalog.WithWalkerLogger(logger),
	).ListLeaves(ctx, root)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.MutedStyle.Render(fmt.Sprintf("Found %d assets, fetching sizes...", len(leaves))))

	rep, err := catalog.NewReporter(p,
		catalog.WithWorkers(s.Workers),
		catalog.WithRetries(s.Retries),
		catalog.WithFailurePolicy(policy),
		catalog.WithReporterLogger(logger),
	).BuildReport(ctx, leaves)
	if err != nil {
		return err
	}

	opts := report.Options{Format: format, Columns: columns}
	switch {
	case sizeOutput == "-":
		err = report.Write(cmd.OutOrStdout(), rep, opts)
	case sizeOutput != "":
		if err = report.WriteFile(sizeOutput, rep, opts); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records to %s\n", len(rep.Records), sizeOutput)
		}
	case cmd.Flags().Changed("format"):
		err = report.Write(cmd.OutOrStdout(), rep, opts)
	default:
		ui.PrintAssetTable(cmd.OutOrStdout(), rep.Records, ui.TableOptions{Human: sizeHuman})
	}
	if err != nil {
		return err
	}

	ui.PrintFailures(cmd.ErrOrStderr(), rep.Failures)
	return nil
}
