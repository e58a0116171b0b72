package types

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a backend response cannot be turned
// into a typed asset value.
var ErrMalformedResponse = errors.New("malformed backend response")

// AssetKind classifies a node in a remote asset hierarchy
type AssetKind string

const (
	KindContainer AssetKind = "container" // folder, image collection, prefix
	KindLeaf      AssetKind = "leaf"      // image, table, object
)

// AssetRef identifies one node in the remote hierarchy
type AssetRef struct {
	Path string    `json:"path"`
	Kind AssetKind `json:"kind"`
	Type string    `json:"type,omitempty"` // backend type tag: IMAGE, FOLDER, text/csv, ...
}

// IsContainer reports whether the node may have children
func (r AssetRef) IsContainer() bool {
	return r.Kind == KindContainer
}

// Validate rejects refs that a backend listing should never produce
func (r AssetRef) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("%w: asset without path", ErrMalformedResponse)
	}
	if r.Kind != KindContainer && r.Kind != KindLeaf {
		return fmt.Errorf("%w: asset %q has unknown kind", ErrMalformedResponse, r.Path)
	}
	return nil
}

// AssetMetadata is the typed result of a single metadata fetch
type AssetMetadata struct {
	Path      string    `json:"path"`
	Kind      AssetKind `json:"kind"`
	Type      string    `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
}

// Validate checks the invariants of a metadata response
func (m AssetMetadata) Validate() error {
	if err := (AssetRef{Path: m.Path, Kind: m.Kind}).Validate(); err != nil {
		return err
	}
	if m.SizeBytes < 0 {
		return fmt.Errorf("%w: asset %q has negative size %d", ErrMalformedResponse, m.Path, m.SizeBytes)
	}
	return nil
}

// AssetRecord is one reported leaf asset
type AssetRecord struct {
	Path      string  `json:"asset" yaml:"asset"`
	Type      string  `json:"type" yaml:"type"`
	SizeBytes int64   `json:"size_bytes" yaml:"size_bytes"`
	SizeMB    float64 `json:"size_mb" yaml:"size_mb"`
}

// Failure records a leaf whose metadata could not be fetched
type Failure struct {
	Path string `json:"asset" yaml:"asset"`
	Err  string `json:"error" yaml:"error"`
}

// Report is the ordered result of a reporting pass
type Report struct {
	Records  []AssetRecord `json:"records" yaml:"records"`
	Failures []Failure     `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// TotalBytes sums the size of every record
func (r *Report) TotalBytes() int64 {
	var total int64
	for _, rec := range r.Records {
		total += rec.SizeBytes
	}
	return total
}
