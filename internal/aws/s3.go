package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

const s3Scheme = "s3://"

// Type tags reported for S3 nodes
const (
	S3TypeBucket = "BUCKET"
	S3TypePrefix = "PREFIX"
	S3TypeObject = "OBJECT"
)

// S3API is the subset of *s3.Client used by S3Provider
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Provider implements provider.AssetProvider for S3 buckets.
// Common prefixes are containers, objects are leaves.
type S3Provider struct {
	api S3API
}

// NewS3Provider creates an S3 provider backed by the given Client
func NewS3Provider(client *Client) *S3Provider {
	return &S3Provider{api: client.S3}
}

// NewS3ProviderWithAPI creates an S3 provider over any S3API implementation
func NewS3ProviderWithAPI(api S3API) *S3Provider {
	return &S3Provider{api: api}
}

// Name implements provider.AssetProvider
func (p *S3Provider) Name() string { return "s3" }

// Close implements provider.AssetProvider
func (p *S3Provider) Close() error { return nil }

// IsS3Path reports whether path uses the s3:// scheme
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3Path splits s3://bucket/some/prefix into bucket and key.
// Trailing slashes are dropped.
func ParseS3Path(path string) (bucket, key string, err error) {
	if !IsS3Path(path) {
		return "", "", fmt.Errorf("not an s3:// path: %q", path)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(path, s3Scheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", path)
	}
	return bucket, strings.TrimSuffix(key, "/"), nil
}

// s3Path joins bucket and key verbatim. Prefix keys keep their trailing
// "/" so an object and a prefix of the same name stay distinct.
func s3Path(bucket, key string) string {
	if key == "" {
		return s3Scheme + bucket
	}
	return s3Scheme + bucket + "/" + key
}

// GetMetadata implements provider.AssetProvider. A path ending in "/" always
// names a prefix; without it an object of that name wins over a prefix.
func (p *S3Provider) GetMetadata(ctx context.Context, path string) (*types.AssetMetadata, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}

	if key == "" {
		if _, err := p.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return nil, classify(err, path)
		}
		return &types.AssetMetadata{Path: s3Path(bucket, ""), Kind: types.KindContainer, Type: S3TypeBucket}, nil
	}

	if !strings.HasSuffix(path, "/") {
		head, err := p.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err == nil {
			md := &types.AssetMetadata{
				Path:      s3Path(bucket, key),
				Kind:      types.KindLeaf,
				Type:      S3TypeObject,
				SizeBytes: aws.ToInt64(head.ContentLength),
			}
			if err := md.Validate(); err != nil {
				return nil, err
			}
			return md, nil
		}
		if err = classify(err, path); !errors.Is(err, provider.ErrNotFound) {
			return nil, err
		}
	}

	// A prefix exists only if something lives below it.
	out, err := p.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, classify(err, path)
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, provider.ErrNotFound)
	}
	return &types.AssetMetadata{Path: s3Path(bucket, key+"/"), Kind: types.KindContainer, Type: S3TypePrefix}, nil
}

// ListChildren implements provider.AssetProvider. Within a page, objects
// come before common prefixes.
func (p *S3Provider) ListChildren(ctx context.Context, path string) ([]types.AssetRef, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	refs := []types.AssetRef{}
	paginator := s3.NewListObjectsV2Paginator(p.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, path)
		}

		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			// Console-created folders leave a zero-byte marker at the prefix itself.
			if objKey == "" || objKey == prefix {
				continue
			}
			refs = append(refs, types.AssetRef{
				Path: s3Path(bucket, objKey),
				Kind: types.KindLeaf,
				Type: S3TypeObject,
			})
		}
		for _, cp := range page.CommonPrefixes {
			sub := aws.ToString(cp.Prefix)
			if sub == "" {
				return nil, fmt.Errorf("%s: %w: common prefix without a name", path, provider.ErrMalformedResponse)
			}
			refs = append(refs, types.AssetRef{
				Path: s3Path(bucket, sub),
				Kind: types.KindContainer,
				Type: S3TypePrefix,
			})
		}
	}

	return refs, nil
}
