package transfer

import (
	"fmt"
	"log/slog"

	"github.com/solatis/courier/internal/composite"
	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/resolution"
)

// Pipeline is a fully wired resolution manager with its schema catalog.
type Pipeline struct {
	Manager *resolution.Manager
	Catalog *composite.Catalog
}

// NewPipeline registers the built-in resolvers (composite, media picker,
// content picker) on a new manager. metrics may be nil.
func NewPipeline(ids identity.Map, logger *slog.Logger, metrics *resolution.Metrics) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	manager := resolution.NewManager(resolution.WithLogger(logger), resolution.WithMetrics(metrics))
	opts := []composite.Option{composite.WithDiagnostics(composite.LogDiagnostics(logger))}
	catalog := composite.NewCatalog(opts...)

	resolvers := []any{
		composite.NewProvider(ids, manager, composite.NewJSONConverter(catalog), opts...),
		resolution.NewMediaPicker(ids, logger),
		resolution.NewContentPicker(ids, logger),
	}
	for _, r := range resolvers {
		if err := manager.Register(r); err != nil {
			return nil, fmt.Errorf("register resolver: %w", err)
		}
	}

	return &Pipeline{Manager: manager, Catalog: catalog}, nil
}

// Runner returns a bundle runner over p.
func (p *Pipeline) Runner(ids identity.Map, opts ...RunnerOption) *Runner {
	return NewRunner(p.Manager, ids, p.Catalog, opts...)
}
