package gcp

import (
	"context"
	"fmt"
	"strings"

	earthengine "google.golang.org/api/earthengine/v1"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

// Earth Engine asset types
const (
	EETypeFolder          = "FOLDER"
	EETypeImageCollection = "IMAGE_COLLECTION"
	EETypeImage           = "IMAGE"
	EETypeTable           = "TABLE"
)

// legacyAssetRoot hosts user assets addressed as users/<name>/...
const legacyAssetRoot = "projects/earthengine-legacy/assets/"

const listPageSize = 1000

// EarthEngineProvider implements provider.AssetProvider and
// provider.AssetMover for Earth Engine assets.
type EarthEngineProvider struct {
	client *Client
	svc    *earthengine.Service
}

// NewEarthEngineProvider creates an Earth Engine provider backed by the given Client.
func NewEarthEngineProvider(ctx context.Context, client *Client) (*EarthEngineProvider, error) {
	svc, err := earthengine.NewService(ctx, client.apiOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create earth engine service: %w", err)
	}
	return &EarthEngineProvider{client: client, svc: svc}, nil
}

// Name implements provider.AssetProvider.
func (p *EarthEngineProvider) Name() string { return "earthengine" }

// Close implements provider.AssetProvider.
func (p *EarthEngineProvider) Close() error { return p.client.Close() }

// NormalizeAssetName turns a legacy asset id (users/alice/foo) into a full
// resource name. Names that already start with projects/ are returned as is.
func NormalizeAssetName(id string) string {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" || strings.HasPrefix(id, "projects/") {
		return id
	}
	return legacyAssetRoot + id
}

// splitAssetName splits projects/<p>/assets/<id> into the create-call parent
// (projects/<p>) and asset id.
func splitAssetName(name string) (parent, assetID string, err error) {
	prefix, id, ok := strings.Cut(name, "/assets/")
	if !ok || !strings.HasPrefix(prefix, "projects/") || id == "" {
		return "", "", fmt.Errorf("invalid asset name %q", name)
	}
	return prefix, id, nil
}

// isEEContainer reports whether assets of this type hold other assets.
func isEEContainer(assetType string) bool {
	return assetType == EETypeFolder || assetType == EETypeImageCollection
}

func eeKind(assetType string) types.AssetKind {
	if isEEContainer(assetType) {
		return types.KindContainer
	}
	return types.KindLeaf
}

// toAssetRef validates a listing entry at the API boundary.
func toAssetRef(a *earthengine.EarthEngineAsset) (types.AssetRef, error) {
	if a == nil || a.Name == "" || a.Type == "" {
		return types.AssetRef{}, fmt.Errorf("%w: asset without name or type", provider.ErrMalformedResponse)
	}
	return types.AssetRef{Path: a.Name, Kind: eeKind(a.Type), Type: a.Type}, nil
}

// GetMetadata implements provider.AssetProvider.
func (p *EarthEngineProvider) GetMetadata(ctx context.Context, path string) (*types.AssetMetadata, error) {
	name := NormalizeAssetName(path)

	asset, err := p.svc.Projects.Assets.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, name)
	}

	ref, err := toAssetRef(asset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	md := &types.AssetMetadata{
		Path:      ref.Path,
		Kind:      ref.Kind,
		Type:      ref.Type,
		SizeBytes: asset.SizeBytes,
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}

// ListChildren implements provider.AssetProvider.
func (p *EarthEngineProvider) ListChildren(ctx context.Context, path string) ([]types.AssetRef, error) {
	name := NormalizeAssetName(path)

	refs := []types.AssetRef{}
	err := p.svc.Projects.Assets.ListAssets(name).
		PageSize(listPageSize).
		Pages(ctx, func(resp *earthengine.ListAssetsResponse) error {
			for _, a := range resp.Assets {
				ref, err := toAssetRef(a)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}
			return nil
		})
	if err != nil {
		return nil, classify(err, name)
	}

	return refs, nil
}

// CreateCollection implements provider.AssetMover.
func (p *EarthEngineProvider) CreateCollection(ctx context.Context, path string) error {
	name := NormalizeAssetName(path)
	parent, assetID, err := splitAssetName(name)
	if err != nil {
		return err
	}

	_, err = p.svc.Projects.Assets.Create(parent, &earthengine.EarthEngineAsset{Type: EETypeImageCollection}).
		AssetId(assetID).
		Context(ctx).
		Do()
	return classify(err, name)
}

// Copy implements provider.AssetMover.
func (p *EarthEngineProvider) Copy(ctx context.Context, src, dst string, overwrite bool) error {
	srcName := NormalizeAssetName(src)
	req := &earthengine.CopyAssetRequest{
		DestinationName: NormalizeAssetName(dst),
		Overwrite:       overwrite,
	}

	_, err := p.svc.Projects.Assets.Copy(srcName, req).Context(ctx).Do()
	return classify(err, srcName)
}

// Delete implements provider.AssetMover.
func (p *EarthEngineProvider) Delete(ctx context.Context, path string) error {
	name := NormalizeAssetName(path)

	_, err := p.svc.Projects.Assets.Delete(name).Context(ctx).Do()
	return classify(err, name)
}
