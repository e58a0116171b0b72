package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

// fakeStore is an in-memory asset hierarchy.
type fakeStore struct {
	mu sync.Mutex

	children map[string][]types.AssetRef
	meta     map[string]*types.AssetMetadata
	// metaErrs holds errors returned by successive GetMetadata calls for a path.
	metaErrs map[string][]error
	listErrs map[string]error

	listCalls int
	metaCalls map[string]int
	copies    [][2]string
	deletes   []string
	created   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		children:  map[string][]types.AssetRef{},
		meta:      map[string]*types.AssetMetadata{},
		metaErrs:  map[string][]error{},
		listErrs:  map[string]error{},
		metaCalls: map[string]int{},
	}
}

func (f *fakeStore) addContainer(parent, path string) *fakeStore {
	f.meta[path] = &types.AssetMetadata{Path: path, Kind: types.KindContainer, Type: "FOLDER"}
	if _, ok := f.children[path]; !ok {
		f.children[path] = []types.AssetRef{}
	}
	if parent != "" {
		f.children[parent] = append(f.children[parent], types.AssetRef{Path: path, Kind: types.KindContainer, Type: "FOLDER"})
	}
	return f
}

func (f *fakeStore) addLeaf(parent, path string, size int64) *fakeStore {
	f.meta[path] = &types.AssetMetadata{Path: path, Kind: types.KindLeaf, Type: "IMAGE", SizeBytes: size}
	f.children[parent] = append(f.children[parent], types.AssetRef{Path: path, Kind: types.KindLeaf, Type: "IMAGE"})
	return f
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) GetMetadata(_ context.Context, path string) (*types.AssetMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.metaCalls[path]++
	if errs := f.metaErrs[path]; len(errs) > 0 {
		f.metaErrs[path] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
	}
	md, ok := f.meta[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, provider.ErrNotFound)
	}
	cp := *md
	return &cp, nil
}

func (f *fakeStore) ListChildren(_ context.Context, path string) ([]types.AssetRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if err := f.listErrs[path]; err != nil {
		return nil, err
	}
	children, ok := f.children[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, provider.ErrNotFound)
	}
	return append([]types.AssetRef(nil), children...), nil
}

func (f *fakeStore) CreateCollection(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, path)
	f.meta[path] = &types.AssetMetadata{Path: path, Kind: types.KindContainer, Type: "IMAGE_COLLECTION"}
	f.children[path] = []types.AssetRef{}
	return nil
}

func (f *fakeStore) Copy(_ context.Context, src, dst string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.copies = append(f.copies, [2]string{src, dst})
	return nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes = append(f.deletes, path)
	return nil
}

// readOnlyStore hides the mutating methods of fakeStore.
type readOnlyStore struct {
	inner *fakeStore
}

func (r readOnlyStore) Name() string { return "readonly" }

func (r readOnlyStore) Close() error { return nil }

func (r readOnlyStore) GetMetadata(ctx context.Context, path string) (*types.AssetMetadata, error) {
	return r.inner.GetMetadata(ctx, path)
}

func (r readOnlyStore) ListChildren(ctx context.Context, path string) ([]types.AssetRef, error) {
	return r.inner.ListChildren(ctx, path)
}

// scenarioStore builds root -> [containerA -> [leaf1, leaf2], leaf3].
func scenarioStore() *fakeStore {
	f := newFakeStore()
	f.addContainer("", "root")
	f.addContainer("root", "root/containerA")
	f.addLeaf("root/containerA", "root/containerA/leaf1", 500_000)
	f.addLeaf("root/containerA", "root/containerA/leaf2", 2_500_000)
	f.addLeaf("root", "root/leaf3", 100_000)
	return f
}
