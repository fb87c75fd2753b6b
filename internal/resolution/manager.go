// Package resolution is the generic resolution pipeline: it routes every
// property of an item, and every data type, to the resolver registered for
// its editor alias.
//
// Editors without a registered resolver pass through unchanged. The manager
// is re-entrant: a resolver may build synthetic items and feed them back
// through PackagingItem/ExtractingItem while its own dispatch is running.
package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/solatis/courier/internal/types"
)

// PropertyResolver translates property values of one editor.
type PropertyResolver interface {
	EditorAlias() string
	PackagingProperty(ctx context.Context, item *types.Item, prop *types.Property) error
	ExtractingProperty(ctx context.Context, item *types.Item, prop *types.Property) error
}

// DataTypeResolver translates data type configuration of one editor.
// Data type translation is best-effort and cannot fail.
type DataTypeResolver interface {
	EditorAlias() string
	PackagingDataType(ctx context.Context, def *types.DataType)
	ExtractingDataType(ctx context.Context, def *types.DataType)
}

// Manager dispatches items and data types to registered resolvers.
// Registration and dispatch are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	properties map[string]PropertyResolver
	dataTypes  map[string]DataTypeResolver
	logger     *slog.Logger
	metrics    *Metrics
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for dispatch events.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records per-operation counters.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		properties: make(map[string]PropertyResolver),
		dataTypes:  make(map[string]DataTypeResolver),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds r under its editor alias as a property resolver, a data
// type resolver, or both. A later registration for the same alias replaces
// the earlier one.
func (m *Manager) Register(r any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	registered := false
	if pr, ok := r.(PropertyResolver); ok {
		m.properties[aliasKey(pr.EditorAlias())] = pr
		registered = true
	}
	if dr, ok := r.(DataTypeResolver); ok {
		m.dataTypes[aliasKey(dr.EditorAlias())] = dr
		registered = true
	}
	if !registered {
		return fmt.Errorf("%T implements neither PropertyResolver nor DataTypeResolver", r)
	}
	return nil
}

// PackagingItem packages every property of item in order.
func (m *Manager) PackagingItem(ctx context.Context, item *types.Item) error {
	return m.resolveItem(ctx, item, types.Packaging)
}

// ExtractingItem extracts every property of item in order.
func (m *Manager) ExtractingItem(ctx context.Context, item *types.Item) error {
	return m.resolveItem(ctx, item, types.Extracting)
}

// PackagingDataType packages a data type's configuration.
func (m *Manager) PackagingDataType(ctx context.Context, def *types.DataType) {
	m.resolveDataType(ctx, def, types.Packaging)
}

// ExtractingDataType extracts a data type's configuration.
func (m *Manager) ExtractingDataType(ctx context.Context, def *types.DataType) {
	m.resolveDataType(ctx, def, types.Extracting)
}

// Item resolves item in the given direction.
func (m *Manager) Item(ctx context.Context, item *types.Item, direction types.Direction) error {
	switch direction {
	case types.Packaging, types.Extracting:
		return m.resolveItem(ctx, item, direction)
	default:
		return fmt.Errorf("%w: %d", types.ErrUnknownDirection, direction)
	}
}

// DataType resolves def in the given direction.
func (m *Manager) DataType(ctx context.Context, def *types.DataType, direction types.Direction) error {
	switch direction {
	case types.Packaging, types.Extracting:
		m.resolveDataType(ctx, def, direction)
		return nil
	default:
		return fmt.Errorf("%w: %d", types.ErrUnknownDirection, direction)
	}
}

func (m *Manager) resolveItem(ctx context.Context, item *types.Item, direction types.Direction) (err error) {
	done := m.metrics.begin(direction, "item")
	defer func() { done(err) }()

	for _, prop := range item.Properties {
		if prop == nil {
			continue
		}

		r, ok := m.propertyResolver(prop.EditorAlias)
		if !ok {
			continue
		}

		if direction == types.Packaging {
			err = r.PackagingProperty(ctx, item, prop)
		} else {
			err = r.ExtractingProperty(ctx, item, prop)
		}
		if err != nil {
			return fmt.Errorf("property %q of item %s: %w", prop.Alias, item.ID, err)
		}
	}

	m.logger.Debug("item resolved",
		slog.String("direction", direction.String()),
		slog.String("item", item.Name),
		slog.Int("depth", item.Depth),
		slog.Int("dependencies", len(item.Dependencies)),
		slog.Int("resources", len(item.Resources)),
	)
	return nil
}

func (m *Manager) resolveDataType(ctx context.Context, def *types.DataType, direction types.Direction) {
	done := m.metrics.begin(direction, "data_type")
	defer done(nil)

	m.mu.RLock()
	r, ok := m.dataTypes[aliasKey(def.EditorAlias)]
	m.mu.RUnlock()
	if !ok {
		return
	}

	if direction == types.Packaging {
		r.PackagingDataType(ctx, def)
	} else {
		r.ExtractingDataType(ctx, def)
	}
}

func (m *Manager) propertyResolver(editorAlias string) (PropertyResolver, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.properties[aliasKey(editorAlias)]
	return r, ok
}

// aliasKey folds editor aliases; alias comparison is case-insensitive.
func aliasKey(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
