package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/report"
	"github.com/vietdv277/geowalk/pkg/provider"
)

var rootCmd = &cobra.Command{
	Use:   "geowalk",
	Short: "Geowalk - walk and size Earth Engine, GCS and S3 asset catalogs",
	Long: `Geowalk walks a hierarchical asset catalog, finds every leaf asset under a
root and reports their sizes, largest first.

Backends are picked by path:
  users/me/folder, projects/p/assets/x   Earth Engine
  gs://bucket/prefix                     Cloud Storage
  s3://bucket/prefix                     S3

Context-Aware Commands:
  geowalk use gcp:lab          # Switch to a saved context
  geowalk status               # Show current context and auth status
  geowalk contexts             # List all configured contexts

Catalog Commands:
  geowalk ls users/me/folder                 # List leaf assets
  geowalk size users/me/folder -o sizes.csv  # Write the size report
  geowalk show sizes.csv                     # Print a saved report
  geowalk rename users/me/old users/me/new   # Copy a collection to a new name`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Global persistent flags (available to all subcommands)
	flags.StringP("context", "c", "", "Context to use instead of the current one")
	flags.String("provider", "", "Provider for non-URL paths: gcp or aws")
	flags.String("project", "", "GCP project to bill Earth Engine and Storage calls to")
	flags.StringP("profile", "p", "", "AWS profile to use")
	flags.StringP("region", "r", "", "Region to use")
	flags.String("endpoint", "", "S3-compatible endpoint URL")
	flags.Int("http-retries", config.DefaultHTTPRetries, "Transport retries for throttled (429) and 5xx responses")
	flags.BoolP("verbose", "v", false, "Enable verbose debug logging")
}

// globalKeys maps settings keys to the persistent flags that set them
var globalKeys = map[string]string{
	"context":      "context",
	"provider":     "provider",
	"project":      "project",
	"profile":      "profile",
	"region":       "region",
	"endpoint":     "endpoint",
	"http_retries": "http-retries",
	"verbose":      "verbose",
}

// bindFlags binds flags to settings keys. Several commands share a key, so
// every run binds into a fresh Viper instead of a package-level one.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadSettings resolves settings for the running command: flag > GEOWALK_* env
// > contexts file > built-in default. keys maps command-local flags.
func loadSettings(cmd *cobra.Command, keys map[string]string) (*config.Settings, error) {
	v := config.NewViper()
	if err := bindFlags(v, cmd.Flags(), globalKeys); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd.Flags(), keys); err != nil {
		return nil, err
	}

	file, err := config.LoadFile()
	if err != nil {
		return nil, err
	}

	return config.LoadSettings(v, file)
}

// newLogger returns a debug logger on stderr when verbose, otherwise a discard logger.
func newLogger(s *config.Settings) *slog.Logger {
	if s == nil || !s.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatError converts catalog and backend errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	case errors.Is(err, provider.ErrAuthFailed):
		return fmt.Sprintf("Error: authentication failed (check your credentials, see 'geowalk status'): %v", err)
	case errors.Is(err, provider.ErrPermissionDenied):
		return fmt.Sprintf("Error: permission denied: %v", err)
	case errors.Is(err, provider.ErrNotFound):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.Is(err, catalog.ErrNotContainer):
		return fmt.Sprintf("Error: root must be a folder, collection or prefix: %v", err)
	case errors.Is(err, catalog.ErrCycleOrDepthExceeded):
		return fmt.Sprintf("Error: hierarchy too deep or cyclic (raise --max-depth if it is legitimately deep): %v", err)
	case errors.Is(err, provider.ErrMalformedResponse):
		return fmt.Sprintf("Error: unexpected backend response: %v", err)
	case errors.Is(err, provider.ErrTransient):
		return fmt.Sprintf("Error: backend unavailable after retries: %v", err)
	case errors.Is(err, provider.ErrNotSupported):
		return fmt.Sprintf("Error: not supported: %v", err)
	case errors.Is(err, report.ErrWrite):
		return fmt.Sprintf("Error: could not write report: %v", err)
	case errors.Is(err, report.ErrUnknownColumn), errors.Is(err, report.ErrUnknownFormat):
		return fmt.Sprintf("Error: invalid output option: %v", err)
	case errors.Is(err, config.ErrContextNotFound):
		return fmt.Sprintf("Error: %v (list them with 'geowalk contexts')", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
