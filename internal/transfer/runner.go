package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solatis/courier/internal/composite"
	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/resolution"
	"github.com/solatis/courier/internal/types"
)

/*
 * Bundle runs.
 *
 * Data types go first: their schemas feed the catalog that composite value
 * decoding consults, keyed by the data type's local id in the environment
 * whose values are being decoded. When packaging that is the source id the
 * record carries; when extracting it is the destination id the identifier
 * map gives for the data type's stable key, falling back to the record's id.
 *
 * Items go second, one at a time, in bundle order. A failing item is
 * recorded in the result and the run moves on; only context cancellation
 * and batch validation abort the whole run.
 */

// Runner resolves bundles. Safe for concurrent use when its collaborators
// are.
type Runner struct {
	pipeline     *resolution.Manager
	ids          identity.Map
	catalog      *composite.Catalog
	maxBatchSize int
	metrics      *resolution.Metrics
	logger       *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxBatchSize rejects bundles with more than n records. n <= 0 means
// unlimited.
func WithMaxBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		r.maxBatchSize = n
	}
}

// WithMetrics records one operation per run.
func WithMetrics(m *resolution.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner over a configured pipeline. catalog must be
// the one the pipeline's composite converter reads.
func NewRunner(pipeline *resolution.Manager, ids identity.Map, catalog *composite.Catalog, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline: pipeline,
		ids:      ids,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves b in place and reports per-item outcomes.
func (r *Runner) Run(ctx context.Context, direction types.Direction, b *Bundle) (result *Result, err error) {
	var op string
	switch direction {
	case types.Packaging:
		op = resolution.OpPackagingTransfer
	case types.Extracting:
		op = resolution.OpExtractingTransfer
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownDirection, direction)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil bundle", types.ErrMalformedPayload)
	}
	if r.maxBatchSize > 0 && b.Size() > r.maxBatchSize {
		return nil, fmt.Errorf("%w: %d records, limit %d", types.ErrBatchTooLarge, b.Size(), r.maxBatchSize)
	}

	done := r.metrics.Begin(op)
	defer func() { done(err) }()

	for _, def := range b.DataTypes {
		if direction == types.Packaging {
			r.stampKey(ctx, def)
		}
		if err := r.pipeline.DataType(ctx, def, direction); err != nil {
			return nil, err
		}
		r.catalog.Remember(def, r.catalogID(ctx, def, direction))
	}

	result = &Result{Bundle: b, Results: make([]ItemResult, 0, len(b.Items))}
	for _, item := range b.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if item.ID == "" {
			item.ID = types.NewItemID()
		}
		item.Depth = 0

		res := ItemResult{ItemID: item.ID, Name: item.Name, OK: true}
		if err := r.pipeline.Item(ctx, item, direction); err != nil {
			res.OK = false
			res.Error = err.Error()
			r.logger.WarnContext(ctx, "item failed",
				slog.String("direction", direction.String()),
				slog.String("item_id", item.ID),
				slog.String("item", item.Name),
				slog.Bool("nested_failure", composite.IsPipelineFailure(err)),
				slog.String("error", err.Error()),
			)
		}
		result.Results = append(result.Results, res)
	}

	r.logger.InfoContext(ctx, "bundle resolved",
		slog.String("direction", direction.String()),
		slog.Int("data_types", len(b.DataTypes)),
		slog.Int("items", len(b.Items)),
		slog.Int("failed", result.Failed()),
	)
	return result, nil
}

// stampKey fills a blank data type key from the identifier map.
func (r *Runner) stampKey(ctx context.Context, def *types.DataType) {
	if !def.Key.IsZero() {
		return
	}
	if key, err := r.ids.ToStableKey(ctx, def.ID, types.KindDataType); err == nil {
		def.Key = key
	}
}

func (r *Runner) catalogID(ctx context.Context, def *types.DataType, direction types.Direction) types.LocalID {
	if direction != types.Extracting || def.Key.IsZero() {
		return def.ID
	}
	id, err := r.ids.ToLocalID(ctx, def.Key, types.KindDataType)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			r.logger.WarnContext(ctx, "data type lookup failed",
				slog.String("data_type", def.Name),
				slog.String("error", err.Error()),
			)
		}
		return def.ID
	}
	return id
}
