package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/aws"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/ui"
)

var useCmd = &cobra.Command{
	Use:   "use [context-name]",
	Short: "Set the active context",
	Long: `Set the active context for subsequent commands. Without a name an
interactive picker opens.

Context names follow the pattern: <provider>:<name>
Examples: gcp:lab, gcp:prod, aws:scenes

A gcp context bills Earth Engine and Cloud Storage calls to its project;
an aws context signs S3 calls with its profile.

Examples:
  geowalk use                 # Pick a context interactively
  geowalk use gcp:lab         # Switch to the lab project
  geowalk use aws:scenes      # Switch to the scenes AWS profile`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUse,
}

var useAddCmd = &cobra.Command{
	Use:   "add <context-name>",
	Short: "Add a new context",
	Long: `Add a new context configuration.

Examples:
  geowalk use add gcp:lab --project my-lab-project
  geowalk use add aws:scenes --profile scenes --region us-west-2
  geowalk use add aws:minio --profile minio --endpoint http://localhost:9000`,
	Args: cobra.ExactArgs(1),
	RunE: runUseAdd,
}

var useDeleteCmd = &cobra.Command{
	Use:   "delete <context-name>",
	Short: "Delete a context",
	Long: `Delete a context configuration.

Examples:
  geowalk use delete aws:old-env`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm", "remove"},
	RunE:    runUseDelete,
}

var (
	// Flags for use add
	useAddProfile  string
	useAddProject  string
	useAddRegion   string
	useAddEndpoint string
)

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.AddCommand(useAddCmd)
	useCmd.AddCommand(useDeleteCmd)

	// Local flags shadow the persistent ones of the same name.
	useAddCmd.Flags().StringVar(&useAddProfile, "profile", "", "AWS profile name")
	useAddCmd.Flags().StringVar(&useAddProject, "project", "", "GCP project ID")
	useAddCmd.Flags().StringVar(&useAddRegion, "region", "", "Region or zone")
	useAddCmd.Flags().StringVar(&useAddEndpoint, "endpoint", "", "S3-compatible endpoint URL (aws only)")
}

func runUse(cmd *cobra.Command, args []string) error {
	contexts, current, err := config.ListContexts()
	if err != nil {
		return err
	}

	var contextName string
	if len(args) == 1 {
		contextName = args[0]
	} else {
		if len(contexts) == 0 {
			printNoContexts(cmd)
			return nil
		}
		contextName, err = ui.SelectContext(contexts, current)
		if errors.Is(err, ui.ErrSelectionCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if err := config.SetCurrentContext(contextName); err != nil {
		if !errors.Is(err, config.ErrContextNotFound) {
			return err
		}

		fmt.Fprintf(out, "Context %q not found.\n\n", contextName)
		if len(contexts) == 0 {
			printNoContexts(cmd)
			return nil
		}
		fmt.Fprintln(out, "Available contexts:")
		for _, name := range config.SortedContextNames(contexts) {
			marker := "  "
			if name == current {
				marker = "* "
			}
			fmt.Fprintf(out, "  %s%s\n", marker, name)
		}
		return nil
	}

	ctx := contexts[contextName]
	fmt.Fprintf(out, "Switched to context: %s\n", contextName)
	fmt.Fprintf(out, "  Provider: %s\n", ctx.Provider)
	if ctx.Profile != "" {
		fmt.Fprintf(out, "  Profile:  %s\n", ctx.Profile)
	}
	if ctx.Project != "" {
		fmt.Fprintf(out, "  Project:  %s\n", ctx.Project)
	}
	if ctx.Region != "" {
		fmt.Fprintf(out, "  Region:   %s\n", ctx.Region)
	}
	if ctx.Endpoint != "" {
		fmt.Fprintf(out, "  Endpoint: %s\n", ctx.Endpoint)
	}

	return nil
}

func printNoContexts(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "No contexts configured. Add one with:")
	fmt.Fprintln(out, "  geowalk use add gcp:lab --project <project-id>")
	fmt.Fprintln(out, "  geowalk use add aws:scenes --profile <profile> --region <region>")
}

// contextFromFlags builds a context for name, inferring the provider from the
// name prefix or, failing that, from which credential flag was given.
func contextFromFlags(name string) (*config.Context, error) {
	provider, _ := config.ParseContextName(name)
	if provider == "" {
		switch {
		case useAddProfile != "" || useAddEndpoint != "":
			provider = config.ProviderAWS
		case useAddProject != "":
			provider = config.ProviderGCP
		default:
			return nil, fmt.Errorf("cannot determine provider. Use format 'gcp:name' or 'aws:name', or provide --project or --profile")
		}
	}

	ctx := &config.Context{
		Provider: provider,
		Region:   useAddRegion,
		Endpoint: useAddEndpoint,
	}

	switch provider {
	case config.ProviderAWS:
		if useAddProfile == "" {
			return nil, fmt.Errorf("--profile is required for aws contexts")
		}
		ctx.Profile = useAddProfile
	case config.ProviderGCP:
		// The project may come from ADC; an empty one is allowed.
		ctx.Project = useAddProject
	}

	return ctx, ctx.Validate()
}

func runUseAdd(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	ctx, err := contextFromFlags(contextName)
	if err != nil {
		return err
	}

	if ctx.Provider == config.ProviderAWS {
		profile, err := aws.LookupProfile(cmd.Context(), ctx.Profile)
		if err != nil {
			return err
		}
		if ctx.Region == "" {
			ctx.Region = profile.Region
		}
	}

	if err := config.AddContext(contextName, ctx); err != nil {
		return fmt.Errorf("failed to add context: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Context added: %s\n", contextName)
	fmt.Fprintln(out, "\nTo use this context:")
	fmt.Fprintf(out, "  geowalk use %s\n", contextName)

	return nil
}

func runUseDelete(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	if err := config.DeleteContext(contextName); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Context deleted: %s\n", contextName)
	return nil
}
