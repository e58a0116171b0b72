package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	storage "google.golang.org/api/storage/v1"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

const gcsScheme = "gs://"

// Type tags reported for GCS nodes without a content type
const (
	GCSTypeBucket = "BUCKET"
	GCSTypePrefix = "PREFIX"
	GCSTypeObject = "OBJECT"
)

// GCSProvider implements provider.AssetProvider for Cloud Storage.
// Prefixes ending in "/" are containers, objects are leaves.
type GCSProvider struct {
	client *Client
	svc    *storage.Service
}

// NewGCSProvider creates a Cloud Storage provider backed by the given Client.
func NewGCSProvider(ctx context.Context, client *Client) (*GCSProvider, error) {
	svc, err := storage.NewService(ctx, client.apiOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSProvider{client: client, svc: svc}, nil
}

// Name implements provider.AssetProvider.
func (p *GCSProvider) Name() string { return "gcs" }

// Close implements provider.AssetProvider.
func (p *GCSProvider) Close() error { return p.client.Close() }

// IsGCSPath reports whether path uses the gs:// scheme.
func IsGCSPath(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// ParseGCSPath splits gs://bucket/some/prefix into bucket and object name.
// Trailing slashes are dropped.
func ParseGCSPath(path string) (bucket, name string, err error) {
	if !IsGCSPath(path) {
		return "", "", fmt.Errorf("not a gs:// path: %q", path)
	}
	bucket, name, _ = strings.Cut(strings.TrimPrefix(path, gcsScheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", path)
	}
	return bucket, strings.TrimSuffix(name, "/"), nil
}

// gcsPath joins bucket and name verbatim. Prefixes keep their trailing "/"
// so an object and a prefix of the same name stay distinct.
func gcsPath(bucket, name string) string {
	if name == "" {
		return gcsScheme + bucket
	}
	return gcsScheme + bucket + "/" + name
}

func objectType(obj *storage.Object) string {
	if obj.ContentType != "" {
		return obj.ContentType
	}
	return GCSTypeObject
}

// GetMetadata implements provider.AssetProvider. A path ending in "/" always
// names a prefix; without it an object of that name wins over a prefix.
func (p *GCSProvider) GetMetadata(ctx context.Context, path string) (*types.AssetMetadata, error) {
	bucket, name, err := ParseGCSPath(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		if _, err := p.svc.Buckets.Get(bucket).Context(ctx).Do(); err != nil {
			return nil, classify(err, path)
		}
		return &types.AssetMetadata{Path: gcsPath(bucket, ""), Kind: types.KindContainer, Type: GCSTypeBucket}, nil
	}

	if !strings.HasSuffix(path, "/") {
		obj, err := p.svc.Objects.Get(bucket, name).Context(ctx).Do()
		if err == nil {
			return &types.AssetMetadata{
				Path:      gcsPath(bucket, obj.Name),
				Kind:      types.KindLeaf,
				Type:      objectType(obj),
				SizeBytes: int64(obj.Size),
			}, nil
		}
		if err = classify(err, path); !errors.Is(err, provider.ErrNotFound) {
			return nil, err
		}
	}

	// A prefix exists only if something lives below it.
	resp, err := p.svc.Objects.List(bucket).Prefix(name + "/").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, path)
	}
	if len(resp.Items) == 0 && len(resp.Prefixes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, provider.ErrNotFound)
	}
	return &types.AssetMetadata{Path: gcsPath(bucket, name+"/"), Kind: types.KindContainer, Type: GCSTypePrefix}, nil
}

// ListChildren implements provider.AssetProvider. Within a page, objects
// come before sub-prefixes.
func (p *GCSProvider) ListChildren(ctx context.Context, path string) ([]types.AssetRef, error) {
	bucket, name, err := ParseGCSPath(path)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if name != "" {
		prefix = name + "/"
	}

	refs := []types.AssetRef{}
	err = p.svc.Objects.List(bucket).
		Prefix(prefix).
		Delimiter("/").
		Pages(ctx, func(page *storage.Objects) error {
			for _, obj := range page.Items {
				// Folder placeholder objects share the prefix name.
				if obj.Name == prefix {
					continue
				}
				refs = append(refs, types.AssetRef{
					Path: gcsPath(bucket, obj.Name),
					Kind: types.KindLeaf,
					Type: objectType(obj),
				})
			}
			for _, sub := range page.Prefixes {
				refs = append(refs, types.AssetRef{
					Path: gcsPath(bucket, sub),
					Kind: types.KindContainer,
					Type: GCSTypePrefix,
				})
			}
			return nil
		})
	if err != nil {
		return nil, classify(err, path)
	}

	return refs, nil
}
