package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps AWS SDK clients
type Client struct {
	S3          *s3.Client
	profile     string
	region      string
	endpoint    string
	maxAttempts int
}

// ClientOption allows customizing the AWS Client
type ClientOption func(*Client)

// WithProfile sets the AWS profile for the client
func WithProfile(profile string) ClientOption {
	return func(c *Client) {
		c.profile = profile
	}
}

// WithRegion sets the AWS region for the client
func WithRegion(region string) ClientOption {
	return func(c *Client) {
		c.region = region
	}
}

// WithEndpoint points the S3 client at an S3-compatible endpoint
// (MinIO, LocalStack). Path-style addressing is enabled.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithMaxAttempts sets the SDK retryer's attempt budget, first try included
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// loadConfig resolves the shared config for a profile and region
func loadConfig(ctx context.Context, profile, region string, extra ...func(*config.LoadOptions) error) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error

	if profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}

	if region != "" {
		configOpts = append(configOpts, config.WithRegion(region))
	}

	configOpts = append(configOpts, extra...)

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return cfg, nil
}

// NewClient creates a new AWS Client with the given options
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	cfg, err := loadConfig(ctx, c.profile, c.region, c.loadOptions()...)
	if err != nil {
		return nil, err
	}

	c.S3 = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
			o.UsePathStyle = true
		}
	})

	return c, nil
}

// loadOptions returns the config options derived from client options
func (c *Client) loadOptions() []func(*config.LoadOptions) error {
	var extra []func(*config.LoadOptions) error
	if c.maxAttempts > 0 {
		extra = append(extra, config.WithRetryMaxAttempts(c.maxAttempts))
	}
	return extra
}
