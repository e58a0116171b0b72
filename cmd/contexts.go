package cmd

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/ui"
)

var contextsCmd = &cobra.Command{
	Use:     "contexts",
	Aliases: []string{"ctx"},
	Short:   "List all configured contexts",
	Long: `List all configured contexts.

The current active context is marked with an asterisk (*).

Examples:
  geowalk contexts
  geowalk ctx`,
	RunE: runContexts,
}

func init() {
	rootCmd.AddCommand(contextsCmd)
}

// cell pads styled text by its plain width; fmt's %-20s would count escape codes.
func cell(plain string, style func(...string) string, width int) string {
	pad := max(width-runewidth.StringWidth(plain), 0)
	return style(plain) + strings.Repeat(" ", pad)
}

func runContexts(cmd *cobra.Command, args []string) error {
	contexts, current, err := config.ListContexts()
	if err != nil {
		return fmt.Errorf("failed to list contexts: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(contexts) == 0 {
		printNoContexts(cmd)
		return nil
	}

	plain := func(s ...string) string { return strings.Join(s, " ") }

	// Print header
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s  %s  %s  %s\n",
		cell("CONTEXT", ui.HeaderStyle.Render, 20),
		cell("PROVIDER", ui.HeaderStyle.Render, 8),
		cell("PROFILE/PROJECT", ui.HeaderStyle.Render, 20),
		ui.HeaderStyle.Render("REGION"))
	fmt.Fprintln(out, ui.MutedStyle.Render("  "+strings.Repeat(ui.Horizontal, 75)))

	for _, name := range config.SortedContextNames(contexts) {
		ctx := contexts[name]

		marker, nameStyle := "  ", plain
		if name == current {
			marker, nameStyle = "* ", ui.SuccessStyle.Render
		}

		credential := ctx.Profile
		if ctx.Provider == config.ProviderGCP {
			credential = ctx.Project
		}
		if credential == "" {
			credential = "-"
		}
		region := ctx.Region
		if region == "" {
			region = "-"
		}

		fmt.Fprintf(out, "%s%s  %s  %s  %s\n",
			marker,
			cell(name, nameStyle, 20),
			cell(strings.ToUpper(ctx.Provider), ui.ProviderStyle(ctx.Provider).Render, 8),
			cell(credential, plain, 20),
			region)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %d contexts configured", len(contexts))
	if current != "" {
		fmt.Fprintf(out, ", current: %s", ui.SuccessStyle.Render(current))
	}
	fmt.Fprintln(out)

	return nil
}
