package aws

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/geowalk/pkg/provider"
)

func TestLookupProfile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")
	credsPath := filepath.Join(dir, "credentials")

	require.NoError(t, os.WriteFile(configPath, []byte(`[default]
region = us-east-1

[profile scenes]
region = us-west-2
`), 0600))
	require.NoError(t, os.WriteFile(credsPath, []byte(`[keys-only]
aws_access_key_id = AKIDEXAMPLE
aws_secret_access_key = secret
`), 0600))

	t.Setenv("AWS_CONFIG_FILE", configPath)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsPath)

	ctx := context.Background()

	t.Run("config profile", func(t *testing.T) {
		p, err := LookupProfile(ctx, "scenes")
		require.NoError(t, err)
		assert.Equal(t, &Profile{Name: "scenes", Region: "us-west-2"}, p)
	})

	t.Run("credentials only", func(t *testing.T) {
		p, err := LookupProfile(ctx, "keys-only")
		require.NoError(t, err)
		assert.Equal(t, "keys-only", p.Name)
		assert.Empty(t, p.Region)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LookupProfile(ctx, "nope")
		require.ErrorIs(t, err, provider.ErrNotConfigured)
	})
}
