// Package catalog walks remote asset hierarchies and builds size reports.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

// DefaultMaxDepth bounds traversal of hierarchies the backend claims are trees.
const DefaultMaxDepth = 64

var (
	// ErrCycleOrDepthExceeded indicates the hierarchy revisited a path or
	// nested deeper than the configured limit.
	ErrCycleOrDepthExceeded = errors.New("cycle or depth limit exceeded")

	// ErrNotContainer indicates the walk root is a leaf asset.
	ErrNotContainer = errors.New("root is not a container")

	// ErrInvalidRoot indicates an empty root path.
	ErrInvalidRoot = errors.New("invalid root path")
)

// Walker enumerates leaf assets beneath a container
type Walker struct {
	provider provider.AssetProvider
	maxDepth int
	logger   *slog.Logger
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithMaxDepth sets the traversal depth limit. Values <= 0 keep the default.
func WithMaxDepth(depth int) WalkerOption {
	return func(w *Walker) {
		if depth > 0 {
			w.maxDepth = depth
		}
	}
}

// WithWalkerLogger sets the logger used for per-container debug output
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWalker creates a Walker backed by the given provider
func NewWalker(p provider.AssetProvider, opts ...WalkerOption) *Walker {
	w := &Walker{
		provider: p,
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// cursor tracks the next unvisited child of one container on the stack
type cursor struct {
	children []types.AssetRef
	next     int
	depth    int
}

// ListLeaves returns every leaf reachable from root, in the order a
// depth-first walk over the backend's listing order discovers them.
func (w *Walker) ListLeaves(ctx context.Context, root string) ([]types.AssetRef, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, ErrInvalidRoot
	}

	md, err := w.provider.GetMetadata(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	if md.Kind != types.KindContainer {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotContainer, root, md.Type)
	}

	visited := map[string]struct{}{md.Path: {}}
	children, err := w.list(ctx, md.Path, 0)
	if err != nil {
		return nil, err
	}

	leaves := []types.AssetRef{}
	stack := []*cursor{{children: children}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		if top.next == len(top.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.children[top.next]
		top.next++

		if _, seen := visited[child.Path]; seen {
			return nil, fmt.Errorf("%w: %s listed twice", ErrCycleOrDepthExceeded, child.Path)
		}
		visited[child.Path] = struct{}{}

		if !child.IsContainer() {
			leaves = append(leaves, child)
			continue
		}

		depth := top.depth + 1
		if depth > w.maxDepth {
			return nil, fmt.Errorf("%w: %s is nested deeper than %d", ErrCycleOrDepthExceeded, child.Path, w.maxDepth)
		}
		grandchildren, err := w.list(ctx, child.Path, depth)
		if err != nil {
			return nil, err
		}
		stack = append(stack, &cursor{children: grandchildren, depth: depth})
	}

	w.logger.Debug("walk complete", "root", root, "leaves", len(leaves), "containers", len(visited)-len(leaves))
	return leaves, nil
}

func (w *Walker) list(ctx context.Context, path string, depth int) ([]types.AssetRef, error) {
	w.logger.Debug("listing container", "path", path, "depth", depth)

	children, err := w.provider.ListChildren(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	for _, child := range children {
		if err := child.Validate(); err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
	}
	return children, nil
}
