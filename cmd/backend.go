package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietdv277/geowalk/internal/aws"
	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/gcp"
	"github.com/vietdv277/geowalk/pkg/provider"
)

// Backend names, as reported by provider.AssetProvider.Name
const (
	backendEarthEngine = "earthengine"
	backendGCS         = "gcs"
	backendS3          = "s3"
)

// backendFor picks the backend serving path. URL schemes win over the
// context provider; bare ids are Earth Engine assets.
func backendFor(path string, s *config.Settings) (string, error) {
	switch {
	case aws.IsS3Path(path):
		return backendS3, nil
	case gcp.IsGCSPath(path):
		return backendGCS, nil
	case s.Provider == config.ProviderAWS:
		return "", fmt.Errorf("%w: context %q is aws but %q is not an s3:// path", provider.ErrNotConfigured, s.Context, path)
	default:
		return backendEarthEngine, nil
	}
}

// openProvider creates the backend session for path. Tests replace it with
// an in-memory provider.
var openProvider = func(ctx context.Context, s *config.Settings, path string, logger *slog.Logger) (provider.AssetProvider, error) {
	backend, err := backendFor(path, s)
	if err != nil {
		return nil, err
	}
	logger.Debug("opening backend", "backend", backend, "context", s.Context)

	switch backend {
	case backendS3:
		client, err := aws.NewClient(ctx, awsOptions(s)...)
		if err != nil {
			return nil, err
		}
		return aws.NewS3Provider(client), nil

	case backendGCS, backendEarthEngine:
		client, err := gcp.NewClient(ctx, gcpOptions(s, logger)...)
		if err != nil {
			return nil, err
		}
		logger.Debug("gcp session", "project", client.Project())
		if backend == backendGCS {
			return gcp.NewGCSProvider(ctx, client)
		}
		return gcp.NewEarthEngineProvider(ctx, client)
	}

	return nil, fmt.Errorf("%w: backend %q", provider.ErrNotSupported, backend)
}

// awsOptions maps settings onto the S3 client. The SDK counts the first try
// as an attempt.
func awsOptions(s *config.Settings) []aws.ClientOption {
	return []aws.ClientOption{
		aws.WithProfile(s.Profile),
		aws.WithRegion(s.Region),
		aws.WithEndpoint(s.Endpoint),
		aws.WithMaxAttempts(s.HTTPRetries + 1),
	}
}

// gcpOptions maps settings onto the Earth Engine and Storage client.
func gcpOptions(s *config.Settings, logger *slog.Logger) []gcp.Option {
	return []gcp.Option{
		gcp.WithProject(s.Project),
		gcp.WithHTTPRetries(s.HTTPRetries),
		gcp.WithLogger(logger),
	}
}
