package provider

import (
	"context"
	"errors"

	"github.com/vietdv277/geowalk/pkg/types"
)

// Common errors
var (
	ErrNotSupported     = errors.New("feature not supported by this provider")
	ErrNotFound         = errors.New("asset not found")
	ErrNotConfigured    = errors.New("provider not configured")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTransient        = errors.New("transient backend error")

	// ErrMalformedResponse is re-exported from the types package.
	ErrMalformedResponse = types.ErrMalformedResponse
)

// AssetProvider defines the read side of a hierarchical asset store
type AssetProvider interface {
	// Name returns the backend identifier (e.g., "earthengine", "gcs", "s3")
	Name() string

	// GetMetadata returns kind, type and size of a single asset
	GetMetadata(ctx context.Context, path string) (*types.AssetMetadata, error)

	// ListChildren returns the immediate children of a container,
	// in the backend's listing order
	ListChildren(ctx context.Context, path string) ([]types.AssetRef, error)

	// Close releases the backend session
	Close() error
}

// AssetMover defines the mutating operations needed to rename a collection
type AssetMover interface {
	// CreateCollection creates an empty image collection at path
	CreateCollection(ctx context.Context, path string) error

	// Copy copies a single asset to a new path
	Copy(ctx context.Context, src, dst string, overwrite bool) error

	// Delete removes a single asset
	Delete(ctx context.Context, path string) error
}
