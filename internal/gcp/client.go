package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	scopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
	scopeEarthEngine   = "https://www.googleapis.com/auth/earthengine"
)

// DefaultHTTPRetries is how many times the HTTP transport retries 429 and 5xx responses.
const DefaultHTTPRetries = 4

// Client wraps GCP credentials and configuration.
// It is the entry point for all GCP operations and holds Application Default
// Credentials loaded via google.FindDefaultCredentials.
type Client struct {
	project     string
	httpRetries int
	logger      *slog.Logger
	httpClient  *http.Client
	clientOpts  []option.ClientOption
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithProject sets the GCP project that API calls are billed to.
func WithProject(project string) Option {
	return func(c *Client) {
		c.project = project
	}
}

// WithHTTPRetries sets the retry budget of the HTTP transport.
func WithHTTPRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.httpRetries = n
		}
	}
}

// WithLogger routes transport retry logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientOptions appends raw API client options. It is meant for pointing
// the client at a test endpoint; credentials are not loaded when any option
// is given.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// NewClient creates a new GCP client using Application Default Credentials (ADC).
// ADC is resolved in this order:
//  1. GOOGLE_APPLICATION_CREDENTIALS environment variable (service account key file)
//  2. gcloud user credentials (~/.config/gcloud/application_default_credentials.json)
//  3. Metadata server (when running on GCE / GKE / Cloud Run)
//
// Returns an error with a helpful message if no credentials are found.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{httpRetries: DefaultHTTPRetries}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.clientOpts) > 0 {
		return c, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, scopeCloudPlatform, scopeEarthEngine)
	if err != nil {
		return nil, fmt.Errorf(
			"no GCP application default credentials found "+
				"(run 'gcloud auth application-default login'): %w",
			err,
		)
	}

	base := oauth2.NewClient(ctx, creds.TokenSource)
	if c.project != "" {
		// Only an explicit project is billed; the credentials' own project
		// is already the default quota project.
		base.Transport = &quotaProjectTransport{project: c.project, base: base.Transport}
	} else {
		c.project = creds.ProjectID
	}
	c.httpClient = c.newRetryingHTTPClient(base)

	return c, nil
}

// newRetryingHTTPClient wraps an authenticated client so that rate limiting
// and server errors are retried with backoff before surfacing to callers.
func (c *Client) newRetryingHTTPClient(base *http.Client) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = c.httpRetries
	// Hand the last response back so googleapi can decode the error body.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if c.logger != nil {
		rc.Logger = c.logger
	}
	return rc.StandardClient()
}

// apiOptions returns the options every API service is built with.
func (c *Client) apiOptions() []option.ClientOption {
	if len(c.clientOpts) > 0 {
		return c.clientOpts
	}
	return []option.ClientOption{option.WithHTTPClient(c.httpClient)}
}

// quotaProjectTransport bills requests to project. option.WithQuotaProject is
// ignored once option.WithHTTPClient supplies the transport.
type quotaProjectTransport struct {
	project string
	base    http.RoundTripper
}

func (t *quotaProjectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Goog-User-Project", t.project)
	return t.base.RoundTrip(req)
}

// Project returns the project API calls are billed to. It falls back to the
// project of the default credentials.
func (c *Client) Project() string {
	return c.project
}
