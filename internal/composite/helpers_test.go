package composite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/resolution"
	"github.com/solatis/courier/internal/types"
)

const textEditor = "Test.Text"

// textResolver stands in for a plain property editor: one document
// dependency per property, upper-cased on packaging, lower-cased on
// extracting. A property whose alias equals fail errors instead.
type textResolver struct {
	fail string
}

func (textResolver) EditorAlias() string { return textEditor }

func (r textResolver) PackagingProperty(_ context.Context, item *types.Item, prop *types.Property) error {
	if prop.Alias == r.fail {
		return errors.New("boom")
	}
	item.Dependencies.Add(types.Dependency{Key: types.StableKey("dep-" + prop.Alias), Provider: types.KindDocument})
	if s, ok := prop.Value.(string); ok {
		prop.Value = strings.ToUpper(s)
	}
	return nil
}

func (r textResolver) ExtractingProperty(_ context.Context, _ *types.Item, prop *types.Property) error {
	if prop.Alias == r.fail {
		return errors.New("boom")
	}
	if s, ok := prop.Value.(string); ok {
		prop.Value = strings.ToLower(s)
	}
	return nil
}

// collector records diagnostics.
type collector struct {
	mu   sync.Mutex
	seen []Diagnostic
}

func (c *collector) record(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, d)
}

func (c *collector) kinds() []DiagnosticKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DiagnosticKind, len(c.seen))
	for i, d := range c.seen {
		out[i] = d.Kind
	}
	return out
}

// newManager wires the composite provider and the text resolver onto a
// fresh pipeline.
func newManager(t *testing.T, ids identity.Map, text textResolver, opts ...Option) *resolution.Manager {
	t.Helper()
	m := resolution.NewManager()
	require.NoError(t, m.Register(NewProvider(ids, m, NewJSONConverter(nil), opts...)))
	require.NoError(t, m.Register(text))
	return m
}

func compositeDataType(schema string) *types.DataType {
	return &types.DataType{
		ID:          100,
		Name:        "Hero",
		EditorAlias: types.CompositeEditorAlias,
		PreValues:   []types.PreValue{{Alias: types.CompositePreValueAlias, Value: schema}},
	}
}

func mustSchema(t *testing.T, text string) *Schema {
	t.Helper()
	s, err := ParseSchema(text)
	require.NoError(t, err, "schema:\n%s", text)
	return s
}

func mustValue(t *testing.T, raw any) *Value {
	t.Helper()
	v := NewJSONConverter(nil).Decode(context.Background(), raw, 0, "")
	require.NotNil(t, v, "not a composite value: %s", spew.Sdump(raw))
	return v
}
