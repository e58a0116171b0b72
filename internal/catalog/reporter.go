package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/vietdv277/geowalk/pkg/provider"
	"github.com/vietdv277/geowalk/pkg/types"
)

// FailurePolicy selects how a per-leaf metadata failure is handled
type FailurePolicy string

const (
	// PolicyAbort stops the whole report on the first failure.
	PolicyAbort FailurePolicy = "abort"
	// PolicySkip records the failure in Report.Failures and continues.
	PolicySkip FailurePolicy = "skip"
)

// ParseFailurePolicy parses "abort" or "skip"
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (supported: abort, skip)", s)
	}
}

const (
	DefaultWorkers = 4
	DefaultRetries = 3
)

// Reporter fetches metadata for leaf assets and builds a sorted Report
type Reporter struct {
	provider   provider.AssetProvider
	workers    int
	retries    int
	policy     FailurePolicy
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithWorkers bounds the number of concurrent metadata fetches
func WithWorkers(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRetries sets how many times a transient failure is retried. 0 disables retries.
func WithRetries(n int) ReporterOption {
	return func(r *Reporter) {
		if n >= 0 {
			r.retries = n
		}
	}
}

// WithFailurePolicy sets the per-leaf failure policy
func WithFailurePolicy(p FailurePolicy) ReporterOption {
	return func(r *Reporter) {
		r.policy = p
	}
}

// WithBackOff overrides the retry schedule
func WithBackOff(fn func() backoff.BackOff) ReporterOption {
	return func(r *Reporter) {
		r.newBackOff = fn
	}
}

// WithReporterLogger sets the logger used for per-leaf output
func WithReporterLogger(logger *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReporter creates a Reporter backed by the given provider
func NewReporter(p provider.AssetProvider, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		provider: p,
		workers:  DefaultWorkers,
		retries:  DefaultRetries,
		policy:   PolicyAbort,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildReport fetches metadata for every leaf and returns the records sorted
// by size, largest first.
func (r *Reporter) BuildReport(ctx context.Context, leaves []types.AssetRef) (*types.Report, error) {
	records := make([]*types.AssetRecord, len(leaves))
	failures := make([]error, len(leaves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, leaf := range leaves {
		g.Go(func() error {
			r.logger.Debug("fetching metadata", "asset", leaf.Path)

			md, err := r.fetch(gctx, leaf.Path)
			if err != nil {
				if r.policy == PolicySkip && gctx.Err() == nil {
					r.logger.Warn("skipping asset", "asset", leaf.Path, "error", err)
					failures[i] = err
					return nil
				}
				return fmt.Errorf("failed to fetch metadata for %s: %w", leaf.Path, err)
			}

			rec := NewRecord(md)
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &types.Report{Records: make([]types.AssetRecord, 0, len(leaves))}
	for i := range leaves {
		switch {
		case records[i] != nil:
			report.Records = append(report.Records, *records[i])
		case failures[i] != nil:
			report.Failures = append(report.Failures, types.Failure{
				Path: leaves[i].Path,
				Err:  failures[i].Error(),
			})
		}
	}
	SortRecords(report.Records)

	return report, nil
}

// fetch retries transient failures with backoff; every other error is permanent.
func (r *Reporter) fetch(ctx context.Context, path string) (*types.AssetMetadata, error) {
	var md *types.AssetMetadata

	op := func() error {
		var err error
		md, err = r.provider.GetMetadata(ctx, path)
		if err != nil {
			if errors.Is(err, provider.ErrTransient) {
				r.logger.Debug("transient failure", "asset", path, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if err := md.Validate(); err != nil {
			return backoff.Permanent(err)
		}
		if md.Kind != types.KindLeaf {
			return backoff.Permanent(fmt.Errorf("%w: %s is not a leaf", provider.ErrMalformedResponse, path))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return md, nil
}
