package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

const testRoot = "projects/earthengine-legacy/assets/users/me/root"

type eeAsset struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	SizeBytes string `json:"sizeBytes,omitempty"`
}

// fakeEarthEngine serves the subset of the Earth Engine REST API used by
// EarthEngineProvider.
type fakeEarthEngine struct {
	mu       sync.Mutex
	assets   map[string]eeAsset
	children map[string][]string
	status   map[string]int
	requests []string
}

func newFakeEarthEngine() *fakeEarthEngine {
	f := &fakeEarthEngine{
		assets:   map[string]eeAsset{},
		children: map[string][]string{},
		status:   map[string]int{},
	}
	f.add("", testRoot, EETypeFolder, "")
	f.add(testRoot, testRoot+"/containerA", EETypeImageCollection, "")
	f.add(testRoot+"/containerA", testRoot+"/containerA/leaf1", EETypeImage, "500000")
	f.add(testRoot+"/containerA", testRoot+"/containerA/leaf2", EETypeImage, "2500000")
	f.add(testRoot, testRoot+"/leaf3", EETypeTable, "100000")
	return f
}

func (f *fakeEarthEngine) add(parent, name, typ, size string) {
	f.assets[name] = eeAsset{Name: name, Type: typ, SizeBytes: size}
	if parent != "" {
		f.children[parent] = append(f.children[parent], name)
	}
}

func (f *fakeEarthEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	f.requests = append(f.requests, r.Method+" "+path)

	w.Header().Set("Content-Type", "application/json")

	name := strings.TrimSuffix(strings.TrimSuffix(path, ":listAssets"), ":copy")
	if code := f.status[name]; code != 0 {
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"injected"}}`, code)
		return
	}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, ":listAssets"):
		kids, ok := f.children[name]
		if _, exists := f.assets[name]; !exists && !ok {
			notFound(w)
			return
		}
		// Serve one asset per page to exercise pagination.
		start := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			start = len(tok)
		}
		resp := map[string]any{"assets": []eeAsset{}}
		if start < len(kids) {
			resp["assets"] = []eeAsset{f.assets[kids[start]]}
			if start+1 < len(kids) {
				resp["nextPageToken"] = strings.Repeat("x", start+1)
			}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case r.Method == http.MethodGet:
		a, ok := f.assets[name]
		if !ok {
			notFound(w)
			return
		}
		_ = json.NewEncoder(w).Encode(a)

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":copy"):
		var req struct {
			DestinationName string `json:"destinationName"`
			Overwrite       bool   `json:"overwrite"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		src := f.assets[name]
		f.assets[req.DestinationName] = eeAsset{Name: req.DestinationName, Type: src.Type, SizeBytes: src.SizeBytes}
		_ = json.NewEncoder(w).Encode(f.assets[req.DestinationName])

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/assets"):
		parent := strings.TrimSuffix(path, "/assets")
		id := r.URL.Query().Get("assetId")
		full := parent + "/assets/" + id
		f.assets[full] = eeAsset{Name: full, Type: EETypeImageCollection}
		_ = json.NewEncoder(w).Encode(f.assets[full])

	case r.Method == http.MethodDelete:
		delete(f.assets, name)
		_, _ = io.WriteString(w, "{}")

	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"unexpected request"}}`)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Asset not found.","status":"NOT_FOUND"}}`)
}

func newTestEarthEngine(t *testing.T) (*EarthEngineProvider, *fakeEarthEngine) {
	t.Helper()

	fake := newFakeEarthEngine()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client, err := NewClient(ctx, WithProject("test"), WithClientOptions(
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	))
	require.NoError(t, err)

	p, err := NewEarthEngineProvider(ctx, client)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, fake
}

func TestEarthEngine_GetMetadata(t *testing.T) {
	t.Parallel()

	p, _ := newTestEarthEngine(t)

	md, err := p.GetMetadata(context.Background(), "users/me/root/containerA/leaf2")
	require.NoError(t, err)
	assert.Equal(t, &types.AssetMetadata{
		Path:      testRoot + "/containerA/leaf2",
		Kind:      types.KindLeaf,
		Type:      EETypeImage,
		SizeBytes: 2_500_000,
	}, md)

	md, err = p.GetMetadata(context.Background(), testRoot+"/containerA")
	require.NoError(t, err)
	assert.Equal(t, types.KindContainer, md.Kind)

	_, err = p.GetMetadata(context.Background(), "users/me/missing")
	require.ErrorIs(t, err, provider.ErrNotFound)
}

func TestEarthEngine_ListChildrenPaginates(t *testing.T) {
	t.Parallel()

	p, _ := newTestEarthEngine(t)

	refs, err := p.ListChildren(context.Background(), testRoot)
	require.NoError(t, err)
	assert.Equal(t, []types.AssetRef{
		{Path: testRoot + "/containerA", Kind: types.KindContainer, Type: EETypeImageCollection},
		{Path: testRoot + "/leaf3", Kind: types.KindLeaf, Type: EETypeTable},
	}, refs)
}

func TestEarthEngine_WalkAndReport(t *testing.T) {
	t.Parallel()

	p, _ := newTestEarthEngine(t)
	ctx := context.Background()

	leaves, err := catalog.NewWalker(p).ListLeaves(ctx, "users/me/root")
	require.NoError(t, err)
	require.Len(t, leaves, 3)

	rep, err := catalog.NewReporter(p).BuildReport(ctx, leaves)
	require.NoError(t, err)

	got := make([]string, len(rep.Records))
	for i, r := range rep.Records {
		got[i] = strings.TrimPrefix(r.Path, testRoot+"/")
	}
	assert.Equal(t, []string{"containerA/leaf2", "containerA/leaf1", "leaf3"}, got)
	assert.Equal(t, EETypeTable, rep.Records[2].Type)
}

func TestEarthEngine_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "forbidden", status: http.StatusForbidden, wantErr: provider.ErrPermissionDenied},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: provider.ErrAuthFailed},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: provider.ErrTransient},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: provider.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, fake := newTestEarthEngine(t)
			fake.status[testRoot] = tt.status

			_, err := p.GetMetadata(context.Background(), testRoot)
			require.ErrorIs(t, err, tt.wantErr)

			_, err = p.ListChildren(context.Background(), testRoot)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEarthEngine_Rename(t *testing.T) {
	t.Parallel()

	p, fake := newTestEarthEngine(t)

	r, err := catalog.NewRenamer(p, nil)
	require.NoError(t, err)

	old := "users/me/root/containerA"
	result, err := r.Rename(context.Background(), old, "users/me/root/renamed", catalog.RenameOptions{Delete: true})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Len(t, result.Moves, 2)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.assets, testRoot+"/renamed")
	assert.Contains(t, fake.assets, testRoot+"/renamed/leaf1")
	assert.Contains(t, fake.assets, testRoot+"/renamed/leaf2")
	assert.NotContains(t, fake.assets, testRoot+"/containerA")
	assert.NotContains(t, fake.assets, testRoot+"/containerA/leaf1")
}

func TestNormalizeAssetName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"users/me/folder":                "projects/earthengine-legacy/assets/users/me/folder",
		"/users/me/folder/":              "projects/earthengine-legacy/assets/users/me/folder",
		"projects/p/assets/a/b":          "projects/p/assets/a/b",
		"  projects/p/assets/collection": "projects/p/assets/collection",
		"":                               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAssetName(in), in)
	}
}

func TestSplitAssetName(t *testing.T) {
	t.Parallel()

	parent, id, err := splitAssetName("projects/earthengine-legacy/assets/users/me/coll")
	require.NoError(t, err)
	assert.Equal(t, "projects/earthengine-legacy", parent)
	assert.Equal(t, "users/me/coll", id)

	_, _, err = splitAssetName("users/me/coll")
	require.Error(t, err)
}
