package resolution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/gmetric"

	"github.com/solatis/courier/internal/types"
)

// recorder is a property and data type resolver that logs its calls.
type recorder struct {
	alias string
	calls []string
	err   error
}

func (r *recorder) EditorAlias() string { return r.alias }

func (r *recorder) PackagingProperty(_ context.Context, _ *types.Item, prop *types.Property) error {
	r.calls = append(r.calls, "pack:"+prop.Alias)
	return r.err
}

func (r *recorder) ExtractingProperty(_ context.Context, _ *types.Item, prop *types.Property) error {
	r.calls = append(r.calls, "extract:"+prop.Alias)
	return r.err
}

func (r *recorder) PackagingDataType(_ context.Context, def *types.DataType) {
	r.calls = append(r.calls, "pack-type:"+def.Name)
}

func (r *recorder) ExtractingDataType(_ context.Context, def *types.DataType) {
	r.calls = append(r.calls, "extract-type:"+def.Name)
}

// propertyOnly implements PropertyResolver but not DataTypeResolver.
type propertyOnly struct {
	calls []string
}

func (*propertyOnly) EditorAlias() string { return "Test.Editor" }

func (p *propertyOnly) PackagingProperty(_ context.Context, _ *types.Item, prop *types.Property) error {
	p.calls = append(p.calls, "pack:"+prop.Alias)
	return nil
}

func (*propertyOnly) ExtractingProperty(context.Context, *types.Item, *types.Property) error {
	return nil
}

func item(props ...*types.Property) *types.Item {
	return &types.Item{ID: "i1", Name: "Page", Properties: props}
}

func TestManager_RegisterRejectsNonResolvers(t *testing.T) {
	m := NewManager()
	err := m.Register(struct{}{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "neither PropertyResolver nor DataTypeResolver")
}

func TestManager_DispatchIsCaseInsensitive(t *testing.T) {
	r := &recorder{alias: "Test.Editor"}
	m := NewManager()
	require.NoError(t, m.Register(r))

	it := item(
		&types.Property{Alias: "a", EditorAlias: "test.editor"},
		&types.Property{Alias: "b", EditorAlias: " TEST.EDITOR "},
		&types.Property{Alias: "c", EditorAlias: "Other.Editor"},
		nil,
	)

	require.NoError(t, m.PackagingItem(context.Background(), it))
	require.NoError(t, m.ExtractingItem(context.Background(), it))

	assert.Equal(t, []string{"pack:a", "pack:b", "extract:a", "extract:b"}, r.calls)
}

func TestManager_UnregisteredEditorsPassThrough(t *testing.T) {
	m := NewManager()
	prop := &types.Property{Alias: "title", EditorAlias: "Courier.Textbox", Value: "hello"}
	it := item(prop)

	require.NoError(t, m.PackagingItem(context.Background(), it))

	assert.Equal(t, "hello", prop.Value)
	assert.Empty(t, it.Dependencies)
}

func TestManager_LaterRegistrationReplaces(t *testing.T) {
	first := &recorder{alias: "Test.Editor"}
	second := &recorder{alias: "test.editor"}
	m := NewManager()
	require.NoError(t, m.Register(first))
	require.NoError(t, m.Register(second))

	require.NoError(t, m.PackagingItem(context.Background(), item(&types.Property{Alias: "a", EditorAlias: "Test.Editor"})))

	assert.Empty(t, first.calls)
	assert.Equal(t, []string{"pack:a"}, second.calls)
}

func TestManager_ErrorsStopAndWrap(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{alias: "Test.Editor", err: boom}
	m := NewManager()
	require.NoError(t, m.Register(r))

	err := m.PackagingItem(context.Background(), item(
		&types.Property{Alias: "a", EditorAlias: "Test.Editor"},
		&types.Property{Alias: "b", EditorAlias: "Test.Editor"},
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `property "a" of item i1`)
	assert.Equal(t, []string{"pack:a"}, r.calls, "resolution stops at the first failure")
}

func TestManager_DataTypeDispatch(t *testing.T) {
	r := &recorder{alias: "Test.Editor"}
	m := NewManager()
	require.NoError(t, m.Register(r))

	ctx := context.Background()
	m.PackagingDataType(ctx, &types.DataType{Name: "one", EditorAlias: "TEST.editor"})
	require.NoError(t, m.DataType(ctx, &types.DataType{Name: "two", EditorAlias: "Test.Editor"}, types.Extracting))
	m.PackagingDataType(ctx, &types.DataType{Name: "three", EditorAlias: "Unknown"})

	assert.Equal(t, []string{"pack-type:one", "extract-type:two"}, r.calls)
}

func TestManager_PropertyOnlyResolver(t *testing.T) {
	r := &propertyOnly{}
	m := NewManager()
	require.NoError(t, m.Register(r))
	require.NoError(t, m.DataType(context.Background(), &types.DataType{EditorAlias: "Test.Editor"}, types.Packaging))

	require.NoError(t, m.Item(context.Background(), item(&types.Property{Alias: "a", EditorAlias: "Test.Editor"}), types.Packaging))
	assert.Equal(t, []string{"pack:a"}, r.calls)
}

func TestManager_UnknownDirection(t *testing.T) {
	m := NewManager()

	assert.ErrorIs(t, m.Item(context.Background(), item(), types.DirectionUnspecified), types.ErrUnknownDirection)
	assert.ErrorIs(t, m.DataType(context.Background(), &types.DataType{}, types.Direction(9)), types.ErrUnknownDirection)
}

// reentrant feeds a synthetic child item back through the manager.
type reentrant struct {
	m *Manager
}

func (reentrant) EditorAlias() string { return "Test.Nested" }

func (r reentrant) PackagingProperty(ctx context.Context, it *types.Item, prop *types.Property) error {
	if it.Depth > 2 {
		return nil
	}
	child := &types.Item{ID: it.ID, Depth: it.Depth + 1, Properties: []*types.Property{{Alias: prop.Alias, EditorAlias: "Test.Nested"}}}
	if err := r.m.PackagingItem(ctx, child); err != nil {
		return err
	}
	it.Dependencies.Add(types.Dependency{Key: types.StableKey(prop.Alias), Provider: types.KindDocument})
	it.Dependencies.AddAll(child.Dependencies)
	return nil
}

func (r reentrant) ExtractingProperty(context.Context, *types.Item, *types.Property) error {
	return nil
}

func TestManager_IsReentrant(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(reentrant{m: m}))

	it := item(&types.Property{Alias: "x", EditorAlias: "Test.Nested"})
	require.NoError(t, m.PackagingItem(context.Background(), it))

	assert.Equal(t, types.DependencySet{{Key: "x", Provider: types.KindDocument}}, it.Dependencies)
}

func TestMetrics(t *testing.T) {
	service := gmetric.New()
	metrics := NewMetrics(service)

	for _, name := range []string{OpPackagingItem, OpExtractingItem, OpPackagingDataType, OpExtractingDataType, OpPackagingTransfer, OpExtractingTransfer} {
		assert.NotNil(t, service.LookupOperation(name), name)
	}

	again := NewMetrics(service)
	assert.Same(t, metrics.operations[OpPackagingItem], again.operations[OpPackagingItem], "operations are looked up before being created")

	m := NewManager(WithMetrics(metrics))
	require.NoError(t, m.Register(&recorder{alias: "Test.Editor", err: errors.New("boom")}))
	assert.Error(t, m.PackagingItem(context.Background(), item(&types.Property{Alias: "a", EditorAlias: "Test.Editor"})))

	metrics.Begin("no.such.operation")(nil)

	var none *Metrics
	assert.NotPanics(t, func() { none.Begin(OpPackagingItem)(errors.New("ignored")) })
}
