package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietdv277/geowalk/internal/aws"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/gcp"
	"github.com/vietdv277/geowalk/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current context and authentication status",
	Long: `Display the active context and verify that its credentials work.

Examples:
  geowalk status
  geowalk status -c aws:scenes`,
	RunE: runStatus,
}

// statusTimeout bounds the identity lookups
const statusTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Status")
	fmt.Fprintln(out, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintln(out)

	if s.Context == "" {
		fmt.Fprintln(out, "Context:  "+ui.MutedStyle.Render("(not set)"))
	} else {
		fmt.Fprintf(out, "Context:  %s\n", ui.HeaderStyle.Render(s.Context))
	}

	sigCtx, cancel := signalContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(sigCtx, statusTimeout)
	defer cancelTimeout()

	switch s.Provider {
	case config.ProviderAWS:
		fmt.Fprintf(out, "Provider: %s\n", ui.AWSStyle.Render("AWS"))
		displayAWSStatus(ctx, out, s)
	default:
		// Earth Engine and Cloud Storage both authenticate with ADC.
		fmt.Fprintf(out, "Provider: %s\n", ui.GCPStyle.Render("GCP"))
		displayGCPStatus(ctx, out, s)
	}

	return nil
}

func displayAWSStatus(ctx context.Context, out io.Writer, s *config.Settings) {
	profile := s.Profile
	if profile == "" {
		profile = "(default)"
	}
	fmt.Fprintf(out, "Profile:  %s\n", ui.AWSStyle.Render(profile))
	if s.Region != "" {
		fmt.Fprintf(out, "Region:   %s\n", s.Region)
	}
	if s.Endpoint != "" {
		fmt.Fprintf(out, "Endpoint: %s\n", s.Endpoint)
	}
	fmt.Fprintln(out)

	// Try to get caller identity
	fmt.Fprint(out, "Auth:     ")
	identity, err := aws.GetCallerIdentity(ctx, s.Profile, s.Region)
	if err != nil {
		fmt.Fprintln(out, ui.FailureStyle.Render("✗ Not authenticated"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To authenticate:")
		fmt.Fprintf(out, "  aws sso login --profile %s\n", s.Profile)
		return
	}

	fmt.Fprintln(out, ui.SuccessStyle.Render("✓ Authenticated"))
	fmt.Fprintf(out, "Account:  %s\n", identity.Account)
	fmt.Fprintf(out, "User:     %s\n", identity.UserID)
	if identity.Arn != "" {
		fmt.Fprintf(out, "ARN:      %s\n", ui.MutedStyle.Render(identity.Arn))
	}
}

func displayGCPStatus(ctx context.Context, out io.Writer, s *config.Settings) {
	fmt.Fprint(out, "Auth:     ")
	identity, err := gcp.GetCallerIdentity(ctx, s.Project)
	if err != nil {
		fmt.Fprintln(out, ui.FailureStyle.Render("✗ Not authenticated"))
		fmt.Fprintf(out, "          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To authenticate:")
		fmt.Fprintln(out, "  gcloud auth application-default login --scopes=https://www.googleapis.com/auth/earthengine,https://www.googleapis.com/auth/cloud-platform")
		return
	}

	fmt.Fprintln(out, ui.SuccessStyle.Render("✓ Application default credentials"))
	project := identity.ProjectID
	if project == "" {
		project = ui.MutedStyle.Render("(not set, pass --project)")
	}
	fmt.Fprintf(out, "Project:  %s\n", ui.GCPStyle.Render(project))
	if identity.Email != "" {
		fmt.Fprintf(out, "Account:  %s\n", identity.Email)
	}
	if identity.CredentialType != "" {
		fmt.Fprintf(out, "Type:     %s\n", ui.MutedStyle.Render(identity.CredentialType))
	}
	if s.Region != "" {
		fmt.Fprintf(out, "Region:   %s\n", s.Region)
	}
}
