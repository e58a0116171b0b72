package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/geowalk/internal/config"
	"github.com/vietdv277/geowalk/internal/report"
	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

// memStore is an in-memory Earth Engine-like hierarchy.
type memStore struct {
	meta       map[string]types.AssetMetadata
	children   map[string][]string
	copies     []string
	overwrites []bool
	opened     []string
	settings   *config.Settings
}

func newMemStore() *memStore {
	m := &memStore{
		meta:     map[string]types.AssetMetadata{},
		children: map[string][]string{},
	}
	m.container("", "users/me/scenes")
	m.container("users/me/scenes", "users/me/scenes/2024")
	m.leaf("users/me/scenes/2024", "users/me/scenes/2024/a", 500_000)
	m.leaf("users/me/scenes/2024", "users/me/scenes/2024/b", 2_500_000)
	m.leaf("users/me/scenes", "users/me/scenes/c", 100_000)
	return m
}

func (m *memStore) container(parent, path string) {
	m.meta[path] = types.AssetMetadata{Path: path, Kind: types.KindContainer, Type: "FOLDER"}
	if parent != "" {
		m.children[parent] = append(m.children[parent], path)
	}
}

func (m *memStore) leaf(parent, path string, size int64) {
	m.meta[path] = types.AssetMetadata{Path: path, Kind: types.KindLeaf, Type: "IMAGE", SizeBytes: size}
	m.children[parent] = append(m.children[parent], path)
}

func (m *memStore) Name() string { return "mem" }

func (m *memStore) Close() error { return nil }

func (m *memStore) GetMetadata(_ context.Context, path string) (*types.AssetMetadata, error) {
	md, ok := m.meta[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, provider.ErrNotFound)
	}
	return &md, nil
}

func (m *memStore) ListChildren(_ context.Context, path string) ([]types.AssetRef, error) {
	var refs []types.AssetRef
	for _, child := range m.children[path] {
		md := m.meta[child]
		refs = append(refs, types.AssetRef{Path: child, Kind: md.Kind, Type: md.Type})
	}
	return refs, nil
}

func (m *memStore) CreateCollection(_ context.Context, path string) error {
	m.container("", path)
	return nil
}

func (m *memStore) Copy(_ context.Context, src, dst string, overwrite bool) error {
	m.copies = append(m.copies, src+" -> "+dst)
	m.overwrites = append(m.overwrites, overwrite)
	return nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	delete(m.meta, path)
	return nil
}

// resetFlags restores every flag of cmd and its children to its default;
// cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// execute runs the root command with store standing in for every backend.
func execute(t *testing.T, store *memStore, args ...string) (string, string, error) {
	t.Helper()

	orig := openProvider
	openProvider = func(_ context.Context, s *config.Settings, path string, _ *slog.Logger) (provider.AssetProvider, error) {
		if _, err := backendFor(path, s); err != nil {
			return nil, err
		}
		store.opened = append(store.opened, path)
		store.settings = s
		return store, nil
	}
	t.Cleanup(func() {
		openProvider = orig
		resetFlags(rootCmd)
	})

	var stdout, stderr bytes.Buffer
	resetFlags(rootCmd)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"FORMAT", "WORKERS", "ON_ERROR", "COLUMNS", "CONTEXT", "PROVIDER", "HTTP_RETRIES"} {
		t.Setenv(config.EnvPrefix+"_"+key, "")
		require.NoError(t, os.Unsetenv(config.EnvPrefix+"_"+key))
	}
	return home
}

func TestLs(t *testing.T) {
	setHome(t)

	stdout, stderr, err := execute(t, newMemStore(), "ls", "users/me/scenes")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"users/me/scenes/2024/a",
		"users/me/scenes/2024/b",
		"users/me/scenes/c",
	}, strings.Fields(stdout))
	assert.Contains(t, stderr, "Found 3 assets")
}

func TestLs_LeafRoot(t *testing.T) {
	setHome(t)

	_, _, err := execute(t, newMemStore(), "ls", "users/me/scenes/c")
	require.Error(t, err)
	assert.Contains(t, formatError(err), "root must be a folder")
}

func TestSize_WritesFile(t *testing.T) {
	dir := setHome(t)
	out := filepath.Join(dir, "sizes.csv")

	_, stderr, err := execute(t, newMemStore(), "size", "users/me/scenes", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote 3 records")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "asset,type,size_mb\n"+
		"users/me/scenes/2024/b,IMAGE,2.50\n"+
		"users/me/scenes/2024/a,IMAGE,0.50\n"+
		"users/me/scenes/c,IMAGE,0.10\n", string(data))

	// show reads the same file back.
	stdout, _, err := execute(t, newMemStore(), "show", out)
	require.NoError(t, err)
	assert.Less(t, strings.Index(stdout, "2024/b"), strings.Index(stdout, "2024/a"))
	assert.Contains(t, stdout, "3,100,000")
}

func TestSize_MissingRootCreatesNoFile(t *testing.T) {
	dir := setHome(t)
	out := filepath.Join(dir, "out.csv")

	_, stderr, err := execute(t, newMemStore(), "size", "users/me/missing", "-o", out)
	require.ErrorIs(t, err, provider.ErrNotFound)

	assert.NotContains(t, stderr, "fetching sizes")
	assert.NoFileExists(t, out)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "out.csv", "temp report file left behind")
	}
}

func TestSize_JSONToStdout(t *testing.T) {
	setHome(t)

	stdout, _, err := execute(t, newMemStore(), "size", "users/me/scenes", "--format", "json")
	require.NoError(t, err)

	var rep types.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	require.Len(t, rep.Records, 3)
	assert.Equal(t, "users/me/scenes/2024/b", rep.Records[0].Path)
	assert.Equal(t, int64(2_500_000), rep.Records[0].SizeBytes)
}

func TestSize_ContextFileDefaults(t *testing.T) {
	setHome(t)
	require.NoError(t, config.SaveFile(&config.File{
		Defaults: &config.Defaults{Columns: []string{"asset", "size_bytes"}},
	}))

	stdout, _, err := execute(t, newMemStore(), "size", "users/me/scenes", "-o", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "asset,size_bytes\nusers/me/scenes/2024/b,2500000\n"), stdout)
}

func TestSize_RejectsBadOptionsBeforeWalking(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"format", []string{"--format", "xml"}, report.ErrUnknownFormat},
		{"column", []string{"--columns", "asset,bytes"}, report.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setHome(t)
			store := newMemStore()

			_, _, err := execute(t, store, append([]string{"size", "users/me/scenes"}, tt.args...)...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.opened)
		})
	}
}

func TestHTTPRetriesSetting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want int
	}{
		{"default", nil, "", config.DefaultHTTPRetries},
		{"flag", []string{"--http-retries", "1"}, "", 1},
		{"env", nil, "7", 7},
		{"flag beats env", []string{"--http-retries", "0"}, "7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setHome(t)
			if tt.env != "" {
				t.Setenv(config.EnvPrefix+"_HTTP_RETRIES", tt.env)
			}
			store := newMemStore()

			_, _, err := execute(t, store, append([]string{"ls", "users/me/scenes"}, tt.args...)...)
			require.NoError(t, err)
			require.NotNil(t, store.settings)
			assert.Equal(t, tt.want, store.settings.HTTPRetries)
		})
	}
}

func TestRename_DryRun(t *testing.T) {
	setHome(t)
	store := newMemStore()

	stdout, stderr, err := execute(t, store, "rename", "users/me/scenes", "users/me/scenes_v2", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, stdout, "would create users/me/scenes_v2")
	assert.Contains(t, stdout, "users/me/scenes_v2/c")
	assert.Contains(t, stderr, "2 assets to copy")
	assert.Empty(t, store.copies)
}

func TestRename_Overwrite(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"overwrites by default", nil, true},
		{"opt out", []string{"--overwrite=false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setHome(t)
			store := newMemStore()

			args := append([]string{"rename", "users/me/scenes", "users/me/scenes_v2"}, tt.args...)
			_, _, err := execute(t, store, args...)
			require.NoError(t, err)

			assert.Equal(t, []string{
				"users/me/scenes/2024 -> users/me/scenes_v2/2024",
				"users/me/scenes/c -> users/me/scenes_v2/c",
			}, store.copies)
			assert.Equal(t, []bool{tt.want, tt.want}, store.overwrites)
		})
	}
}

func TestUseAndContexts(t *testing.T) {
	setHome(t)
	store := newMemStore()

	_, _, err := execute(t, store, "use", "add", "gcp:lab", "--project", "lab-project")
	require.NoError(t, err)

	stdout, _, err := execute(t, store, "use", "gcp:lab")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Switched to context: gcp:lab")
	assert.Contains(t, stdout, "lab-project")

	stdout, _, err = execute(t, store, "contexts")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gcp:lab")
	assert.Contains(t, stdout, "lab-project")

	stdout, _, err = execute(t, store, "use", "gcp:missing")
	require.NoError(t, err)
	assert.Contains(t, stdout, `Context "gcp:missing" not found`)

	_, _, err = execute(t, store, "use", "delete", "gcp:lab")
	require.NoError(t, err)

	_, current, err := config.ListContexts()
	require.NoError(t, err)
	assert.Empty(t, current)
}
