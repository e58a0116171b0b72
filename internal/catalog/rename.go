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

// RenameOptions controls a collection rename
type RenameOptions struct {
	Delete    bool // delete the source assets and collection after copying
	Overwrite bool // replace assets that already exist at the destination
	DryRun    bool // compute the plan without touching the backend
}

// Move is a single planned copy
type Move struct {
	From string
	To   string
}

// RenameResult describes what a rename did (or would do, for a dry run)
type RenameResult struct {
	Created bool
	Moves   []Move
	Deleted []string
}

// Renamer copies every asset of a collection into a new collection.
// Collections cannot be renamed in place, so the old one is optionally
// deleted afterwards.
type Renamer struct {
	provider provider.AssetProvider
	mover    provider.AssetMover
	logger   *slog.Logger
}

// NewRenamer returns a Renamer, or ErrNotSupported if the provider cannot
// mutate assets.
func NewRenamer(p provider.AssetProvider, logger *slog.Logger) (*Renamer, error) {
	mover, ok := p.(provider.AssetMover)
	if !ok {
		return nil, fmt.Errorf("%s: rename: %w", p.Name(), provider.ErrNotSupported)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renamer{provider: p, mover: mover, logger: logger}, nil
}

// Rename copies the direct children of oldPath under newPath
func (r *Renamer) Rename(ctx context.Context, oldPath, newPath string, opts RenameOptions) (*RenameResult, error) {
	oldPath = strings.TrimSuffix(strings.TrimSpace(oldPath), "/")
	newPath = strings.TrimSuffix(strings.TrimSpace(newPath), "/")
	if oldPath == "" || newPath == "" {
		return nil, ErrInvalidRoot
	}
	if oldPath == newPath {
		return nil, fmt.Errorf("%w: source and destination are both %s", ErrInvalidRoot, oldPath)
	}

	src, err := r.provider.GetMetadata(ctx, oldPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", oldPath, err)
	}
	if src.Kind != types.KindContainer {
		return nil, fmt.Errorf("%w: %s", ErrNotContainer, oldPath)
	}
	// Backends may normalize ids; children are listed under the canonical name.
	oldPath = src.Path

	result := &RenameResult{}

	dst, err := r.provider.GetMetadata(ctx, newPath)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		result.Created = true
		if !opts.DryRun {
			r.logger.Info("creating collection", "path", newPath)
			if err := r.mover.CreateCollection(ctx, newPath); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", newPath, err)
			}
		}
	case err != nil:
		return nil, fmt.Errorf("failed to resolve %s: %w", newPath, err)
	default:
		newPath = dst.Path
	}

	children, err := r.provider.ListChildren(ctx, oldPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", oldPath, err)
	}

	for _, child := range children {
		if err := child.Validate(); err != nil {
			return nil, err
		}
		move := Move{From: child.Path, To: newPath + strings.TrimPrefix(child.Path, oldPath)}
		result.Moves = append(result.Moves, move)
		if opts.DryRun {
			continue
		}

		r.logger.Info("copying asset", "from", move.From, "to", move.To)
		if err := r.mover.Copy(ctx, move.From, move.To, opts.Overwrite); err != nil {
			return result, fmt.Errorf("failed to copy %s to %s: %w", move.From, move.To, err)
		}
		if opts.Delete {
			if err := r.delete(ctx, move.From, result); err != nil {
				return result, err
			}
		}
	}

	if opts.Delete {
		if opts.DryRun {
			for _, m := range result.Moves {
				result.Deleted = append(result.Deleted, m.From)
			}
			result.Deleted = append(result.Deleted, oldPath)
			return result, nil
		}
		if err := r.delete(ctx, oldPath, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (r *Renamer) delete(ctx context.Context, path string, result *RenameResult) error {
	r.logger.Info("deleting asset", "path", path)
	if err := r.mover.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	result.Deleted = append(result.Deleted, path)
	return nil
}
