package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/geowalk/internal/aws"
	"github.com/vietdv277/geowalk/internal/config"
)

func TestAWSOptions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	tests := []struct {
		name         string
		retries      int
		wantAttempts int
	}{
		{"default budget", config.DefaultHTTPRetries, config.DefaultHTTPRetries + 1},
		{"retries disabled", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &config.Settings{Region: "us-east-1", Endpoint: "http://localhost:9000", HTTPRetries: tt.retries}

			client, err := aws.NewClient(context.Background(), awsOptions(s)...)
			require.NoError(t, err)

			opts := client.S3.Options()
			assert.Equal(t, tt.wantAttempts, opts.RetryMaxAttempts)
			assert.Equal(t, "us-east-1", opts.Region)
			assert.True(t, opts.UsePathStyle)
		})
	}
}
